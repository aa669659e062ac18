package push

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/huddle/internal/domain"
	"github.com/immxrtalbeast/huddle/lib/logger/handlers/slogdiscard"
	"github.com/stretchr/testify/assert"
)

func TestLogSenderHonoursCancellation(t *testing.T) {
	s := NewLogSender(slogdiscard.NewDiscardLogger())
	n := domain.NewNotification(uuid.New(), domain.NotifyComment, "t", "b", uuid.New())

	assert.NoError(t, s.Send(context.Background(), n))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, n), context.Canceled)
}

func TestDisabledDropsEverything(t *testing.T) {
	assert.NoError(t, Disabled{}.Send(context.Background(), nil))
}
