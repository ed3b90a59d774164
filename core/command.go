package core

import (
	"errors"
	"sync"
)

var ErrUnknownCommand = errors.New("unknown command id")

// CommandHandler decodes its own arguments from data
type CommandHandler func(data *[]byte) error

// Command is one entry of the message dictionary. Responses have no handler.
type Command struct {
	ID      uint16
	Name    string
	Format  string // e.g. "offset=%u count=%c"
	Handler CommandHandler
}

// IsResponse reports whether the message flows from the lock to the host
func (c *Command) IsResponse() bool {
	return c.Handler == nil
}

// Signature is the dictionary key, "name format"
func (c *Command) Signature() string {
	if c.Format == "" {
		return c.Name
	}
	return c.Name + " " + c.Format
}

// CommandRegistry assigns sequential ids in registration order
type CommandRegistry struct {
	mu       sync.RWMutex
	commands []*Command
	byName   map[string]uint16
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{byName: make(map[string]uint16)}
}

// Register adds a host command. Registering a name again returns its id.
func (r *CommandRegistry) Register(name, format string, handler CommandHandler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byName[name]; ok {
		return id
	}
	id := uint16(len(r.commands))
	r.commands = append(r.commands, &Command{ID: id, Name: name, Format: format, Handler: handler})
	r.byName[name] = id
	return id
}

// RegisterResponse adds a message sent by the lock
func (r *CommandRegistry) RegisterResponse(name, format string) uint16 {
	return r.Register(name, format, nil)
}

// GetCommand looks a message up by id
func (r *CommandRegistry) GetCommand(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.commands) {
		return nil, false
	}
	return r.commands[id], true
}

// GetCommandByName looks a message up by name
func (r *CommandRegistry) GetCommandByName(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.commands[id], true
}

// Count returns the number of registered messages
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Commands returns every message in id order
func (r *CommandRegistry) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Dispatch runs the handler of id. A response id sent by the host is an error.
func (r *CommandRegistry) Dispatch(id uint16, data *[]byte) error {
	cmd, ok := r.GetCommand(id)
	if !ok || cmd.IsResponse() {
		return ErrUnknownCommand
	}
	return cmd.Handler(data)
}
