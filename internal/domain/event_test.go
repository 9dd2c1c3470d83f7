package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOrderKey_TimestampFirst(t *testing.T) {
	req := require.New(t)

	now := time.Now()
	earlier := TimelineEvent{ID: 9, CreatedAt: now}
	later := TimelineEvent{ID: 1, CreatedAt: now.Add(time.Millisecond)}

	req.True(later.OrderKey().After(earlier.OrderKey()))
	req.True(earlier.OrderKey().Less(later.OrderKey()))
}

func TestOrderKey_IDBreaksTies(t *testing.T) {
	req := require.New(t)

	now := time.Now()
	first := TimelineEvent{ID: 1, CreatedAt: now}
	second := TimelineEvent{ID: 2, CreatedAt: now}

	req.True(second.OrderKey().After(first.OrderKey()))
	req.False(first.OrderKey().After(second.OrderKey()))
	req.False(first.OrderKey().After(first.OrderKey()), "a key is never after itself")
}

func TestEventKind_Valid(t *testing.T) {
	req := require.New(t)

	req.True(EventKindMessage.Valid())
	req.True(EventKindProof.Valid())
	req.False(EventKind("upload").Valid())
	req.False(EventKind("").Valid())
}
