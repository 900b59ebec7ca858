package authstate

import (
	"testing"

	"codegram-backend/internal/domain"
	"codegram-backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_DeliversCurrentStateThenChanges(t *testing.T) {
	b := NewBroker(logger.Nop())
	user := &domain.User{ID: "u1", Username: "olena"}

	sub := b.Subscribe("u1", user)
	first := <-sub.C
	require.NotNil(t, first.User)
	assert.Equal(t, "olena", first.User.Username)

	b.Publish("u1", nil)
	second := <-sub.C
	assert.Nil(t, second.User)

	b.Publish("someone-else", user)
	select {
	case st := <-sub.C:
		t.Fatalf("unexpected state %+v", st)
	default:
	}
}

func TestBroker_Unsubscribe(t *testing.T) {
	b := NewBroker(logger.Nop())
	sub := b.Subscribe("u1", nil)
	<-sub.C
	assert.Equal(t, 1, b.Subscribers("u1"))

	b.Unsubscribe(sub)
	assert.Equal(t, 0, b.Subscribers("u1"))
	_, open := <-sub.C
	assert.False(t, open)

	// second call is a no-op
	b.Unsubscribe(sub)
}
