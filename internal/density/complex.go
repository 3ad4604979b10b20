package density

import (
	"github.com/san-kum/sphsum/internal/compute"
	"github.com/san-kum/sphsum/internal/dynamo"
	"github.com/san-kum/sphsum/internal/particles"
)

// Complex runs one inner policy and the contact policies, in registration
// order, into one accumulator, then commits through the inner policy only.
type Complex struct {
	inner    InnerPolicy
	contacts []AccumulationPolicy
	body     *particles.Body
	sum      Accumulator
}

// NewComplex uses the body's DensitySummation field as the accumulator.
func NewComplex(inner InnerPolicy, contacts ...AccumulationPolicy) *Complex {
	body := inner.Relation().Body()
	return &Complex{
		inner:    inner,
		contacts: contacts,
		body:     body,
		sum:      body.AddScalar(particles.FieldDensitySummation),
	}
}

func (c *Complex) Body() *particles.Body    { return c.body }
func (c *Complex) Inner() InnerPolicy       { return c.inner }
func (c *Complex) Accumulator() Accumulator { return c.sum }
func (c *Complex) Size() int                { return c.body.Size() }
func (c *Complex) Contacts() int            { return len(c.contacts) }

func (c *Complex) Interaction(i int, dt float64) {
	c.inner.Interaction(i, c.sum, dt)
	for _, p := range c.contacts {
		p.Interaction(i, c.sum, dt)
	}
}

func (c *Complex) Update(i int, dt float64) {
	c.inner.Update(i, c.sum, dt)
}

// Exec clears the accumulator and runs one full summation step on b.
func (c *Complex) Exec(b compute.Backend, dt float64) {
	clear(c.sum)
	dynamo.Exec(b, c, dt)
}
