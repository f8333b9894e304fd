package runtime

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

// FanPolicy holds the camera cooling parameters.
type FanPolicy struct {
	// Poll is the interval between temperature readings while waiting.
	Poll time.Duration
	// Timeout bounds the wait for the temperature to settle.
	Timeout time.Duration
	// Epsilon is the accepted distance to the target temperature, in °C.
	Epsilon float64
	// Ambient is the target temperature used while the fan is stopped, in °C.
	Ambient float64
	// Speed is the fan speed used to restart a fan whose speed was never saved.
	Speed float64
}

// DefaultFanPolicy returns the default cooling parameters.
func DefaultFanPolicy() FanPolicy {
	return FanPolicy{
		Poll:    time.Second,
		Timeout: 60 * time.Second,
		Epsilon: 3,
		Ambient: 25,
		Speed:   1,
	}
}

func (p FanPolicy) withDefaults() FanPolicy {
	d := DefaultFanPolicy()
	if p.Poll <= 0 {
		p.Poll = d.Poll
	}
	if p.Timeout <= 0 {
		p.Timeout = d.Timeout
	}
	if p.Epsilon <= 0 {
		p.Epsilon = d.Epsilon
	}
	if p.Ambient == 0 {
		p.Ambient = d.Ambient
	}
	if p.Speed <= 0 {
		p.Speed = d.Speed
	}
	return p
}

// fanController stops the camera fan for the best acquisition quality
// (no vibrations) and restores the cooling afterwards.
type fanController struct {
	camera domain.Component
	cooler domain.Cooler
	policy FanPolicy
	logger *slog.Logger

	savedSpeed *float64
	savedTemp  *float64
}

func newFanController(camera domain.Component, cooler domain.Cooler, policy FanPolicy, logger *slog.Logger) *fanController {
	return &fanController{
		camera: camera,
		cooler: cooler,
		policy: policy,
		logger: logger.With("component", camera.Name()),
	}
}

// enabled reports the hardware state of the fan.
func (f *fanController) enabled() bool {
	return f.cooler.FanSpeed() > 0
}

// set turns the fan on or off. It does nothing if the fan is already in that state.
func (f *fanController) set(ctx context.Context, enable bool) error {
	if enable == f.enabled() {
		return nil
	}
	if enable {
		return f.enable(ctx)
	}
	return f.disable()
}

func (f *fanController) enable(ctx context.Context) error {
	speed := f.policy.Speed
	if f.savedSpeed != nil {
		speed = *f.savedSpeed
	}
	speed = math.Max(f.cooler.FanSpeed(), speed)
	f.logger.Info("starting camera fan", "speed", speed)
	if err := f.cooler.SetFanSpeed(speed); err != nil {
		return err
	}

	if f.savedTemp == nil {
		return nil
	}
	target := math.Min(f.cooler.TargetTemperature(), *f.savedTemp)
	if err := f.cooler.SetTargetTemperature(target); err != nil {
		return err
	}
	return f.waitTemperature(ctx, target)
}

func (f *fanController) disable() error {
	speed := f.cooler.FanSpeed()
	temp := f.cooler.TargetTemperature()
	f.savedSpeed = &speed
	f.savedTemp = &temp

	target := f.cooler.TargetTemperatureDef().Clip(f.policy.Ambient)
	f.logger.Info("stopping camera fan", "saved_speed", speed, "saved_temperature", temp, "target", target)
	if err := f.cooler.SetTargetTemperature(target); err != nil {
		return err
	}
	return f.cooler.SetFanSpeed(0)
}

// waitTemperature polls the sensor until it is close to target.
// A timeout is logged, not returned: acquisition can proceed with a warmer sensor.
func (f *fanController) waitTemperature(ctx context.Context, target float64) error {
	deadline := time.Now().Add(f.policy.Timeout)
	ticker := time.NewTicker(f.policy.Poll)
	defer ticker.Stop()

	for {
		cur := f.cooler.Temperature()
		if math.Abs(cur-target) <= f.policy.Epsilon {
			f.logger.Debug("camera temperature reached", "temperature", cur, "target", target)
			return nil
		}
		if time.Now().After(deadline) {
			f.logger.Warn("camera temperature not reached",
				"temperature", cur, "target", target, "waited", f.policy.Timeout)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *fanController) memory() domain.FanMemory {
	return domain.FanMemory{Speed: f.savedSpeed, Temperature: f.savedTemp}
}

func (f *fanController) restore(m domain.FanMemory) {
	f.savedSpeed = m.Speed
	f.savedTemp = m.Temperature
}
