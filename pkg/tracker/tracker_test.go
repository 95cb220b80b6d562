package tracker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestTracker_Report verifies only repeated titles are reported.
func TestTracker_Report(t *testing.T) {
	tr := New()
	assert.Equal(t, 0, tr.Count("Setup Guide"))

	assert.Equal(t, 1, tr.Add("Setup Guide"))
	assert.Equal(t, 2, tr.Add("Setup Guide"))
	tr.Add("Install")

	assert.Equal(t, map[string]int{"Setup Guide": 2}, tr.Report())
	assert.Equal(t, []Duplicate{{Title: "Setup Guide", Count: 2}}, tr.Duplicates())
	assert.Equal(t, 1, tr.Count("Install"))
	assert.Equal(t, 0, tr.Count("missing"))
}

// TestTracker_Concurrent verifies no increments are lost under contention.
func TestTracker_Concurrent(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Add("Shared")
			tr.Add("Other")
		}()
	}
	wg.Wait()

	assert.Equal(t, map[string]int{"Shared": 50, "Other": 50}, tr.Report())
	assert.Equal(t, "Other", tr.Duplicates()[0].Title)
}
