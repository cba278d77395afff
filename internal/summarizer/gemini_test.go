package summarizer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyRotationWrapsAround(t *testing.T) {
	s := &geminiSummarizer{apiKeys: []string{"key-a", "key-b", "key-c"}}

	key, idx := s.activeKey()
	assert.Equal(t, "key-a", key)
	assert.Equal(t, 0, idx)

	s.rotateKey()
	key, _ = s.activeKey()
	assert.Equal(t, "key-b", key)

	s.rotateKey()
	s.rotateKey()
	key, idx = s.activeKey()
	assert.Equal(t, "key-a", key)
	assert.Equal(t, 0, idx)
}

func TestKeyRotationConcurrent(t *testing.T) {
	s := &geminiSummarizer{apiKeys: []string{"key-a", "key-b", "key-c"}}

	// every worker goroutine in the pool shares one summarizer, so rotation
	// and reads race without the guard
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.rotateKey()
				key, idx := s.activeKey()
				assert.NotEmpty(t, key)
				assert.GreaterOrEqual(t, idx, 0)
				assert.Less(t, idx, len(s.apiKeys))
			}
		}()
	}
	wg.Wait()

	_, idx := s.activeKey()
	assert.GreaterOrEqual(t, idx, 0)
	assert.Less(t, idx, len(s.apiKeys))
}
