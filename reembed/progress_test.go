package reembed

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_ReportsAtInterval(t *testing.T) {
	var out bytes.Buffer
	p := NewProgressTracker(&out, 10, 5)
	p.Start()

	p.Update(3)
	assert.Empty(t, out.String(), "below report interval")

	p.Update(5)
	assert.Contains(t, out.String(), "5/10")

	p.Update(10)
	assert.Contains(t, out.String(), "10/10")
	assert.Contains(t, out.String(), "100.0%")
}

func TestProgressTracker_Finish(t *testing.T) {
	var out bytes.Buffer
	p := NewProgressTracker(&out, 4, 100)
	p.Start()
	p.Update(2)
	p.Finish()

	assert.Contains(t, out.String(), "4/4")
}

func TestProgressTracker_IgnoresUpdatesBeforeStart(t *testing.T) {
	var out bytes.Buffer
	p := NewProgressTracker(&out, 10, 1)

	p.Update(5)
	p.Finish()
	assert.Empty(t, out.String())
	assert.Zero(t, p.Elapsed())
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	var out bytes.Buffer
	p := NewProgressTracker(&out, 3, 1)
	p.Start()

	p.Update(7)
	assert.Contains(t, out.String(), "3/3")
}
