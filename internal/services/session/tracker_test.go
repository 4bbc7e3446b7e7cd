package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/playersession/internal/dependencies/mocks"
	"github.com/mcoot/playersession/internal/model"
)

type TrackerSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	tracker *Tracker
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerSuite))
}

func (s *TrackerSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.tracker = NewTracker(s.clock)
}

func (s *TrackerSuite) TestStartsEmpty() {
	s.Equal(0, s.tracker.Count())
	s.False(s.tracker.IsLoggedIn("alice"))
	s.Empty(s.tracker.List())
}

func (s *TrackerSuite) TestTryLogin() {
	s.True(s.tracker.TryLogin("alice", 1))
	s.True(s.tracker.IsLoggedIn("alice"))

	session, ok := s.tracker.Get("alice")
	s.True(ok)
	s.Equal(model.ConnectionID(1), session.ConnectionID)
	s.Equal(s.clock.Now(), session.LoggedInAt)
}

func (s *TrackerSuite) TestTryLoginRejectsDoubleLogin() {
	s.True(s.tracker.TryLogin("alice", 1))
	s.False(s.tracker.TryLogin("alice", 2))

	// the original session is untouched
	session, _ := s.tracker.Get("alice")
	s.Equal(model.ConnectionID(1), session.ConnectionID)
}

func (s *TrackerSuite) TestLogoutIsIdempotent() {
	s.tracker.TryLogin("alice", 1)

	s.True(s.tracker.Logout("alice"))
	s.False(s.tracker.Logout("alice"))
	s.False(s.tracker.Logout("nobody"))
	s.False(s.tracker.IsLoggedIn("alice"))
}

func (s *TrackerSuite) TestLoginAfterLogout() {
	s.tracker.TryLogin("alice", 1)
	s.tracker.Logout("alice")

	s.True(s.tracker.TryLogin("alice", 2))
}

func (s *TrackerSuite) TestLogoutConnectionReleasesOnlyThatConnection() {
	s.tracker.TryLogin("alice", 1)
	s.tracker.TryLogin("carol", 1)
	s.tracker.TryLogin("bob", 2)

	released := s.tracker.LogoutConnection(1)

	s.Equal([]string{"alice", "carol"}, released)
	s.False(s.tracker.IsLoggedIn("alice"))
	s.False(s.tracker.IsLoggedIn("carol"))
	s.True(s.tracker.IsLoggedIn("bob"))
}

func (s *TrackerSuite) TestLogoutConnectionUnknown() {
	s.Empty(s.tracker.LogoutConnection(99))
}

func (s *TrackerSuite) TestLogoutThenLogoutConnectionDoesNotReleaseNewOwner() {
	s.tracker.TryLogin("alice", 1)
	s.tracker.Logout("alice")
	s.tracker.TryLogin("alice", 2)

	s.Empty(s.tracker.LogoutConnection(1))
	s.True(s.tracker.IsLoggedIn("alice"))
}

func (s *TrackerSuite) TestListSorted() {
	s.tracker.TryLogin("carol", 3)
	s.tracker.TryLogin("alice", 1)
	s.clock.Advance(time.Minute)
	s.tracker.TryLogin("bob", 2)

	list := s.tracker.List()
	s.Require().Len(list, 3)
	s.Equal("alice", list[0].Username)
	s.Equal("bob", list[1].Username)
	s.Equal("carol", list[2].Username)
	s.Equal(s.clock.Now(), list[1].LoggedInAt)
}

func (s *TrackerSuite) TestConcurrentTryLoginSingleWinner() {
	var wg sync.WaitGroup
	var wins atomic.Int32

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(conn model.ConnectionID) {
			defer wg.Done()
			if s.tracker.TryLogin("alice", conn) {
				wins.Add(1)
			}
		}(model.ConnectionID(i))
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(1, s.tracker.Count())
}
