package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGet(t *testing.T) {
	c := New()
	c.Set("k", 42, time.Minute)

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	c := New()
	c.Set("k", "v", 10*time.Millisecond)

	_, ok := c.Get("k")
	assert.True(t, ok)

	time.Sleep(25 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestNonPositiveTTLDisablesCaching(t *testing.T) {
	c := New()
	c.Set("k", "v", 0)
	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", "v", -time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	c := New()
	c.Set("k", "v", time.Minute)
	c.Delete("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k-%d-%d", i, j%16)
				c.Set(key, j, time.Minute)
				c.Get(key)
				if j%3 == 0 {
					c.Delete(key)
				}
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
