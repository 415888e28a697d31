package elevator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ElevatorSuite struct {
	suite.Suite
	e *Elevator
}

// Уровни: 0 -> {0}, 1 -> {1, 2}, 2 -> {3}; узел 4 не добавлен.
func (s *ElevatorSuite) SetupTest() {
	s.e = New(5)
	s.e.InitStart()
	s.e.InitAddItem(0)
	s.e.InitNewLevel()
	s.e.InitAddItem(1)
	s.e.InitAddItem(2)
	s.e.InitNewLevel()
	s.e.InitAddItem(3)
	s.e.InitFinish()
}

func (s *ElevatorSuite) TestInitLevels() {
	s.Equal(5, s.e.MaxLevel())
	s.Equal(0, s.e.Level(0))
	s.Equal(1, s.e.Level(1))
	s.Equal(1, s.e.Level(2))
	s.Equal(2, s.e.Level(3))
	s.Equal(5, s.e.Level(4), "node never added stays on top")

	for n := 0; n < 5; n++ {
		s.False(s.e.Active(n))
	}
	_, ok := s.e.HighestActive()
	s.False(ok)
	s.Equal(-1, s.e.HighestActiveLevel())
}

func (s *ElevatorSuite) TestActivateDeactivate() {
	s.e.Activate(1)
	s.True(s.e.Active(1))

	n, ok := s.e.HighestActive()
	s.Require().True(ok)
	s.Equal(1, n)
	s.Equal(1, s.e.HighestActiveLevel())

	s.e.Activate(3)
	n, ok = s.e.HighestActive()
	s.Require().True(ok)
	s.Equal(3, n)
	s.Equal(2, s.e.HighestActiveLevel())

	s.e.Deactivate(3)
	s.False(s.e.Active(3))
	n, _ = s.e.HighestActive()
	s.Equal(1, n)

	// повторные вызовы ничего не меняют
	s.e.Activate(1)
	s.e.Deactivate(3)
	s.False(s.e.EmptyLevel(1))
	s.False(s.e.EmptyLevel(2))
}

func (s *ElevatorSuite) TestActiveOn() {
	s.True(s.e.ActiveFree(1))
	s.e.Activate(2)
	s.False(s.e.ActiveFree(1))

	n, ok := s.e.ActiveOn(1)
	s.True(ok)
	s.Equal(2, n)

	_, ok = s.e.ActiveOn(0)
	s.False(ok)
	_, ok = s.e.ActiveOn(99)
	s.False(ok)
	s.True(s.e.ActiveFree(-1))
}

func (s *ElevatorSuite) TestLiftHighestActive() {
	s.e.Activate(1)
	s.e.LiftHighestActive(3)

	s.Equal(3, s.e.Level(1))
	s.True(s.e.Active(1))
	s.Equal(3, s.e.HighestActiveLevel())
	s.False(s.e.EmptyLevel(1), "node 2 still resides on level 1")
}

func (s *ElevatorSuite) TestLiftHighestActiveToTop() {
	s.e.Activate(3)
	s.e.LiftHighestActiveToTop()

	s.Equal(s.e.MaxLevel(), s.e.Level(3))
	s.True(s.e.Active(3))
	s.True(s.e.EmptyLevel(2))

	_, ok := s.e.HighestActive()
	s.False(ok, "nodes on top are never selected")
}

func (s *ElevatorSuite) TestLiftActiveOn() {
	s.e.Activate(0)
	s.e.LiftActiveOn(0, 2)
	s.Equal(2, s.e.Level(0))
	s.True(s.e.EmptyLevel(0))

	s.e.LiftActiveToTop(2)
	s.Equal(s.e.MaxLevel(), s.e.Level(0))

	// на уровне нет активных узлов: ничего не происходит
	s.e.LiftActiveOn(1, 4)
	s.Equal(1, s.e.Level(1))
}

func (s *ElevatorSuite) TestGapLiftsEverythingAbove() {
	s.e.Activate(3)
	s.e.Activate(2)

	// поднимаем узел 0 с уровня 0, уровень 0 пустеет
	s.e.Activate(0)
	s.e.LiftActiveOn(0, 3)
	s.Require().True(s.e.EmptyLevel(0))

	s.e.LiftToTop(0)

	for n := 0; n < 4; n++ {
		s.Equal(s.e.MaxLevel(), s.e.Level(n), "node %d", n)
		s.False(s.e.Active(n), "node %d", n)
	}
	_, ok := s.e.HighestActive()
	s.False(ok)
	s.True(s.e.EmptyLevel(1))
	s.True(s.e.EmptyLevel(2))
}

func (s *ElevatorSuite) TestGapKeepsLowerLevels() {
	s.e.Activate(3)
	s.e.LiftToTop(1)

	s.Equal(0, s.e.Level(0))
	s.Equal(1, s.e.Level(1))
	s.Equal(s.e.MaxLevel(), s.e.Level(3))
}

func (s *ElevatorSuite) TestDirtyTopButOne() {
	s.e.InitStart()
	s.e.InitAddItem(0)
	s.e.InitFinish()

	s.e.DirtyTopButOne(4)
	s.Equal(s.e.MaxLevel()-1, s.e.Level(4))
	s.False(s.e.Active(4))
	s.True(s.e.EmptyLevel(s.e.MaxLevel() - 1))

	s.e.LiftToTop(0)
	s.Equal(s.e.MaxLevel()-1, s.e.Level(4), "parked nodes are not lifted by the gap")
}

func (s *ElevatorSuite) TestInitStartResets() {
	s.e.Activate(1)
	s.e.InitStart()
	s.e.InitFinish()

	for n := 0; n < 5; n++ {
		s.Equal(s.e.MaxLevel(), s.e.Level(n))
		s.False(s.e.Active(n))
	}
	_, ok := s.e.HighestActive()
	s.False(ok)
}

func TestElevatorSuite(t *testing.T) {
	suite.Run(t, new(ElevatorSuite))
}

func TestNew_Empty(t *testing.T) {
	e := New(0)
	assert.Equal(t, 0, e.MaxLevel())
	assert.Equal(t, 0, e.NodeCount())
	_, ok := e.HighestActive()
	assert.False(t, ok)
	assert.False(t, e.EmptyLevel(0))
}

// Сверка с наивной моделью на случайной последовательности операций.
func TestElevator_MatchesNaiveModel(t *testing.T) {
	const n = 12
	e := New(n)
	e.InitStart()
	for v := 0; v < n-2; v++ {
		if v > 0 && v%3 == 0 {
			e.InitNewLevel()
		}
		e.InitAddItem(v)
	}
	e.InitFinish()

	seed := uint32(7)
	rnd := func(k int) int {
		seed = seed*1664525 + 1013904223
		return int(seed>>8) % k
	}

	for step := 0; step < 2000; step++ {
		v := rnd(n)
		switch rnd(3) {
		case 0:
			e.Activate(v)
		case 1:
			e.Deactivate(v)
		case 2:
			if e.Active(v) && e.Level(v) < n {
				// только через публичный API: поднимаем самый высокий активный
				if top, ok := e.HighestActive(); ok {
					nl := e.Level(top) + 1 + rnd(2)
					old := e.Level(top)
					e.LiftHighestActive(nl)
					if e.EmptyLevel(old) {
						e.LiftToTop(old)
					}
				}
			}
		}

		best := -1
		for u := 0; u < n; u++ {
			if e.Active(u) && e.Level(u) < n && e.Level(u) > best {
				best = e.Level(u)
			}
		}
		top, ok := e.HighestActive()
		if best < 0 {
			require.False(t, ok, "step %d", step)
			continue
		}
		require.True(t, ok, "step %d", step)
		require.Equal(t, best, e.Level(top), "step %d", step)
		require.Equal(t, best, e.HighestActiveLevel(), "step %d", step)

		for l := 0; l < n; l++ {
			cnt := 0
			for u := 0; u < n; u++ {
				if e.Level(u) == l {
					cnt++
				}
			}
			require.Equal(t, cnt == 0, e.EmptyLevel(l), "step %d level %d", step, l)
		}
	}
}
