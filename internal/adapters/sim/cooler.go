package sim

import (
	"math"
	"sync"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

// Camera is a simulated detector with a cooling fan.
// Each temperature reading moves the sensor temperature one step towards the target.
type Camera struct {
	*Component

	cmu         sync.Mutex
	fanSpeed    float64
	target      float64
	temperature float64
	rate        float64
	tempDef     domain.AxisDef
}

// NewCamera creates a cooled camera.
func NewCamera(name, role string, fanSpeed, target float64, tempDef domain.AxisDef, opts ...Option) *Camera {
	return &Camera{
		Component:   New(name, role, opts...),
		fanSpeed:    fanSpeed,
		target:      target,
		temperature: target,
		rate:        math.Inf(1),
		tempDef:     tempDef,
	}
}

// SetCoolingRate limits how fast the temperature follows the target, per reading.
func (c *Camera) SetCoolingRate(rate float64) {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	c.rate = rate
}

func (c *Camera) FanSpeed() float64 {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	return c.fanSpeed
}

func (c *Camera) SetFanSpeed(speed float64) error {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	c.fanSpeed = speed
	return nil
}

func (c *Camera) TargetTemperature() float64 {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	return c.target
}

func (c *Camera) SetTargetTemperature(temp float64) error {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	c.target = c.tempDef.Clip(temp)
	return nil
}

func (c *Camera) Temperature() float64 {
	c.cmu.Lock()
	defer c.cmu.Unlock()
	diff := c.target - c.temperature
	if math.Abs(diff) <= c.rate {
		c.temperature = c.target
	} else {
		c.temperature += math.Copysign(c.rate, diff)
	}
	return c.temperature
}

func (c *Camera) TargetTemperatureDef() domain.AxisDef {
	return c.tempDef
}
