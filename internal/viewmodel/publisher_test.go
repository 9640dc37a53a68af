package viewmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublisherKeepsLatest(t *testing.T) {
	var p Publisher[int]
	ch, cancel := p.Subscribe(0)
	defer cancel()

	p.Publish(1)
	p.Publish(2)
	p.Publish(3)

	assert.Equal(t, 3, <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected snapshot %d", v)
	default:
	}
}

func TestPublisherInitialSnapshot(t *testing.T) {
	var p Publisher[string]
	ch, cancel := p.Subscribe("initial")
	defer cancel()

	assert.Equal(t, "initial", <-ch)
}

func TestPublisherUnsubscribe(t *testing.T) {
	var p Publisher[int]
	ch, cancel := p.Subscribe(0)
	<-ch

	cancel()
	cancel()
	p.Publish(1)

	_, ok := <-ch
	assert.False(t, ok)
}
