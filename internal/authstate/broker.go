// Package authstate fans out sign-in and sign-out changes to subscribers of a user.
package authstate

import (
	"sync"

	"codegram-backend/internal/domain"
	"codegram-backend/pkg/logger"

	"github.com/google/uuid"
)

// State is the authenticated user, or nil after sign-out.
type State struct {
	User *domain.User `json:"user"`
}

type Subscription struct {
	ID  uuid.UUID
	UID string
	C   <-chan State

	out chan State
}

type Broker struct {
	mu     sync.RWMutex
	log    *logger.Logger
	subs   map[string]map[*Subscription]bool
	buffer int
}

func NewBroker(log *logger.Logger) *Broker {
	return &Broker{
		log:    log.With("component", "AuthStateBroker"),
		subs:   make(map[string]map[*Subscription]bool),
		buffer: 8,
	}
}

// Subscribe registers for changes of uid and delivers current immediately.
func (b *Broker) Subscribe(uid string, current *domain.User) *Subscription {
	out := make(chan State, b.buffer)
	out <- State{User: current}
	sub := &Subscription{ID: uuid.New(), UID: uid, C: out, out: out}

	b.mu.Lock()
	set, ok := b.subs[uid]
	if !ok {
		set = make(map[*Subscription]bool)
		b.subs[uid] = set
	}
	set[sub] = true
	b.mu.Unlock()

	b.log.Debug("Auth state subscribed", "uid", uid, "subscription_id", sub.ID)
	return sub
}

func (b *Broker) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.subs[sub.UID]
	if !ok || !set[sub] {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(b.subs, sub.UID)
	}
	close(sub.out)
}

// Publish delivers user (nil on sign-out) to every subscriber of uid.
// Slow subscribers lose the message rather than block the publisher.
func (b *Broker) Publish(uid string, user *domain.User) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[uid] {
		select {
		case sub.out <- State{User: user}:
		default:
			b.log.Warn("Dropping auth state update; buffer full", "uid", uid, "subscription_id", sub.ID)
		}
	}
}

// Subscribers returns the number of live subscriptions for uid.
func (b *Broker) Subscribers(uid string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[uid])
}
