package core

// PWMPin identifies a hardware pin capable of PWM output
type PWMPin uint32

// PWMValue is a high time in timer ticks, 0 to the configured cycle
type PWMValue uint32

// PWMDriver is the abstract PWM interface that core code uses.
type PWMDriver interface {
	// ConfigureHardwarePWM configures a pin for hardware PWM output
	// cycleTicks: PWM period in timer ticks
	// Returns the actual cycle ticks used (may be adjusted for hardware constraints)
	ConfigureHardwarePWM(pin PWMPin, cycleTicks uint32) (uint32, error)

	// SetDutyCycle sets the high time of each cycle, in timer ticks
	SetDutyCycle(pin PWMPin, value PWMValue) error

	// DisablePWM stops the output and returns it to GPIO mode
	DisablePWM(pin PWMPin) error
}

// Global singleton registered by the target.
var pwmDriver PWMDriver

// SetPWMDriver is called by target-specific code to register its driver.
func SetPWMDriver(d PWMDriver) {
	pwmDriver = d
}

// MustPWM returns the configured driver or panics if missing.
func MustPWM() PWMDriver {
	if pwmDriver == nil {
		panic("PWM driver not configured")
	}
	return pwmDriver
}
