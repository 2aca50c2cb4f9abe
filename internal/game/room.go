package game

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"trivia-service/internal/domain"
)

// Broadcaster delivers an event to every connection currently registered to a
// room. Delivery is best effort; dead peers must never fail the broadcast.
type Broadcaster interface {
	Broadcast(roomID string, ev domain.Event)
}

// Generator produces a question set. It never fails from the caller's
// perspective; on any upstream trouble it substitutes a fallback set.
type Generator interface {
	Generate(ctx context.Context, count int, topic string) []domain.Question
}

// ResultArchive persists the outcome of a finished room.
type ResultArchive interface {
	Save(ctx context.Context, result domain.GameResult) error
}

// Timings holds the phase durations of a room. All are armed at phase entry;
// a timer firing after the room left its phase is a no-op.
type Timings struct {
	Countdown     time.Duration
	CountdownTick time.Duration
	QuestionTime  time.Duration
	RevealDelay   time.Duration
	LobbyGrace    time.Duration
}

// DefaultTimings mirror the original game pacing.
func DefaultTimings() Timings {
	return Timings{
		Countdown:     10 * time.Second,
		CountdownTick: time.Second,
		QuestionTime:  5 * time.Second,
		RevealDelay:   3 * time.Second,
		LobbyGrace:    5 * time.Minute,
	}
}

// Config is the per-room configuration fixed at creation.
type Config struct {
	Capacity      int
	QuestionCount int
	Topic         string
	Timings       Timings
}

// Room owns one trivia session: its phase, roster, question set, submissions
// and scores. All mutable state is owned by the room goroutine; every public
// operation posts a command onto an ordered queue, so no two operations of the
// same room ever run concurrently.
type Room struct {
	id        string
	cfg       Config
	createdAt time.Time

	bus     Broadcaster
	gen     Generator
	archive ResultArchive
	onClose func(roomID string)

	cmds chan func()
	done chan struct{}

	// Owned by the room goroutine.
	closed        bool
	phase         domain.Phase
	questions     []domain.Question
	questionIdx   int
	roster        []*domain.Participant
	byID          map[string]*domain.Participant
	submissions   []domain.Submission
	answered      map[string]bool
	questionStart time.Time
}

func newRoom(id string, cfg Config, bus Broadcaster, gen Generator, archive ResultArchive, onClose func(string)) *Room {
	r := &Room{
		id:        id,
		cfg:       cfg,
		createdAt: time.Now(),
		bus:       bus,
		gen:       gen,
		archive:   archive,
		onClose:   onClose,
		cmds:      make(chan func(), 32),
		done:      make(chan struct{}),
		phase:     domain.PhaseLobby,
		byID:      make(map[string]*domain.Participant),
	}
	go r.run()
	r.afterInPhase(cfg.Timings.LobbyGrace, domain.PhaseLobby, 0, func() {
		r.closeRoom("room expired before filling up")
	})
	return r
}

func (r *Room) run() {
	// The loop exits the moment a command tears the room down; commands still
	// queued behind it are never executed, so their posters must watch done.
	for fn := range r.cmds {
		fn()
		if r.closed {
			return
		}
	}
}

// post schedules fn on the room goroutine. It reports false once the room has
// been torn down. A true return does not guarantee execution: teardown may
// already be queued ahead of fn, so callers waiting on a reply must also watch
// done.
func (r *Room) post(fn func()) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.cmds <- fn:
		return true
	case <-r.done:
		return false
	}
}

// await waits for a command's reply without hanging on a dead room: if the
// room tears down before the command runs, the fallback is returned instead.
func await[T any](r *Room, ch <-chan T, fallback T) T {
	select {
	case v := <-ch:
		return v
	case <-r.done:
		// The command may have replied in the same step that closed the room.
		select {
		case v := <-ch:
			return v
		default:
			return fallback
		}
	}
}

// afterInPhase arms a timer that re-enters the state machine. The callback is
// dropped if the room has meanwhile left the phase (and question index) it was
// armed for.
func (r *Room) afterInPhase(d time.Duration, phase domain.Phase, idx int, fn func()) {
	time.AfterFunc(d, func() {
		r.post(func() {
			if r.phase != phase || r.questionIdx != idx {
				return
			}
			fn()
		})
	})
}

// ID returns the room's shareable code.
func (r *Room) ID() string { return r.id }

// Topic returns the configured topic.
func (r *Room) Topic() string { return r.cfg.Topic }

// Capacity returns the configured roster limit.
func (r *Room) Capacity() int { return r.cfg.Capacity }

// Done is closed when the room has been torn down.
func (r *Room) Done() <-chan struct{} { return r.done }

// Size reports the current roster size, serialized through the command queue.
func (r *Room) Size() int {
	ch := make(chan int, 1)
	if !r.post(func() { ch <- len(r.roster) }) {
		return 0
	}
	return await(r, ch, 0)
}

// Phase reports the room's current phase, serialized through the command queue.
func (r *Room) Phase() domain.Phase {
	ch := make(chan domain.Phase, 1)
	if !r.post(func() { ch <- r.phase }) {
		return domain.PhaseFinished
	}
	return await(r, ch, domain.PhaseFinished)
}

// Join adds a participant while the room is still in the lobby. Reaching
// configured capacity fires the one-way transition into question generation.
func (r *Room) Join(name string) (string, error) {
	type result struct {
		id  string
		err error
	}
	ch := make(chan result, 1)
	ok := r.post(func() {
		id, err := r.join(name)
		ch <- result{id, err}
	})
	if !ok {
		return "", domain.ErrRoomNotFound
	}
	res := await(r, ch, result{err: domain.ErrRoomNotFound})
	return res.id, res.err
}

func (r *Room) join(name string) (string, error) {
	// Once the countdown has begun the room is gone for good, whatever the
	// roster looks like. Up to and including generation, a full roster is the
	// reason a join fails, so racers behind the capacity-reaching join still
	// see a full room rather than a started game.
	if r.phase != domain.PhaseLobby && r.phase != domain.PhaseGenerating {
		return "", domain.ErrRoomNotJoinable
	}
	if len(r.roster) >= r.cfg.Capacity {
		return "", domain.ErrRoomFull
	}

	p := &domain.Participant{
		ID:        uuid.NewString(),
		Name:      name,
		Connected: true,
		JoinOrder: len(r.roster),
	}
	r.roster = append(r.roster, p)
	r.byID[p.ID] = p

	names := make([]string, 0, len(r.roster))
	for _, member := range r.roster {
		names = append(names, member.Name)
	}
	r.bus.Broadcast(r.id, domain.Event{
		Type: domain.EventParticipantJoined,
		Payload: domain.ParticipantJoinedPayload{
			Name:                p.Name,
			CurrentParticipants: len(r.roster),
			MaxParticipants:     r.cfg.Capacity,
			Participants:        names,
		},
	})

	if len(r.roster) == r.cfg.Capacity {
		r.startGenerating()
	}
	return p.ID, nil
}

// Submit records an answer for the current question. The first submission per
// participant wins; duplicates are ignored without error. Answers outside a
// question window are rejected.
func (r *Room) Submit(participantID, option string) (bool, error) {
	type result struct {
		accepted bool
		err      error
	}
	ch := make(chan result, 1)
	ok := r.post(func() {
		accepted, err := r.submit(participantID, option)
		ch <- result{accepted, err}
	})
	if !ok {
		return false, domain.ErrRoomNotFound
	}
	res := await(r, ch, result{err: domain.ErrRoomNotFound})
	return res.accepted, res.err
}

func (r *Room) submit(participantID, option string) (bool, error) {
	if r.phase != domain.PhaseQuestion {
		return false, domain.ErrNoActiveQuestion
	}
	if _, ok := r.byID[participantID]; !ok {
		return false, domain.ErrParticipantNotFound
	}
	option = strings.ToUpper(option)
	if !validOption(option) {
		return false, domain.ErrInvalidOption
	}
	if r.answered[participantID] {
		// First write wins; re-submissions for the same question are dropped.
		return false, nil
	}
	r.answered[participantID] = true
	r.submissions = append(r.submissions, domain.Submission{
		ParticipantID: participantID,
		Option:        option,
		Elapsed:       time.Since(r.questionStart),
	})
	return true, nil
}

func validOption(option string) bool {
	for _, label := range domain.OptionLabels {
		if option == label {
			return true
		}
	}
	return false
}

// Disconnect marks a participant as gone. Scoring history is kept, so a
// dropped participant still appears in reveals and final standings. A lobby
// that empties out is torn down.
func (r *Room) Disconnect(participantID string) {
	r.post(func() {
		p, ok := r.byID[participantID]
		if !ok {
			return
		}
		p.Connected = false
		if r.phase == domain.PhaseLobby {
			delete(r.byID, participantID)
			roster := r.roster[:0]
			for _, member := range r.roster {
				if member.ID != participantID {
					member.JoinOrder = len(roster)
					roster = append(roster, member)
				}
			}
			r.roster = roster
			if len(r.roster) == 0 {
				r.teardown()
				return
			}
		}
		r.bus.Broadcast(r.id, domain.Event{
			Type:    domain.EventParticipantDisconnected,
			Payload: domain.ParticipantDisconnectedPayload{Name: p.Name},
		})
	})
}

func (r *Room) startGenerating() {
	r.phase = domain.PhaseGenerating
	r.bus.Broadcast(r.id, domain.Event{
		Type: domain.EventGeneratingQuestions,
		Payload: domain.GeneratingPayload{
			Message: "generating " + r.cfg.Topic + " questions...",
		},
	})

	// The generator is the only call allowed to block for long; it runs off
	// the room goroutine and posts the result back. Its contract guarantees a
	// question set, so this transition cannot fail.
	go func() {
		questions := r.gen.Generate(context.Background(), r.cfg.QuestionCount, r.cfg.Topic)
		r.post(func() {
			if r.phase != domain.PhaseGenerating {
				return
			}
			r.questions = questions
			r.startCountdown()
		})
	}()
}

func (r *Room) startCountdown() {
	r.phase = domain.PhaseCountdown
	r.bus.Broadcast(r.id, domain.Event{
		Type:    domain.EventQuestionsGenerated,
		Payload: domain.QuestionsGeneratedPayload{Count: len(r.questions)},
	})
	ticks := int(r.cfg.Timings.Countdown / r.cfg.Timings.CountdownTick)
	r.countdownTick(ticks)
}

func (r *Room) countdownTick(remaining int) {
	if remaining <= 0 {
		r.startQuestion(0)
		return
	}
	r.bus.Broadcast(r.id, domain.Event{
		Type:    domain.EventCountdownTick,
		Payload: domain.CountdownTickPayload{SecondsRemaining: remaining},
	})
	r.afterInPhase(r.cfg.Timings.CountdownTick, domain.PhaseCountdown, 0, func() {
		r.countdownTick(remaining - 1)
	})
}

func (r *Room) startQuestion(idx int) {
	if idx >= len(r.questions) {
		r.finish()
		return
	}
	r.phase = domain.PhaseQuestion
	r.questionIdx = idx
	r.submissions = nil
	r.answered = make(map[string]bool)
	r.questionStart = time.Now()

	q := r.questions[idx]
	r.bus.Broadcast(r.id, domain.Event{
		Type: domain.EventQuestion,
		Payload: domain.QuestionPayload{
			Index:            idx,
			Total:            len(r.questions),
			Prompt:           q.Prompt,
			Options:          q.Options,
			TimeLimitSeconds: int(r.cfg.Timings.QuestionTime / time.Second),
		},
	})

	// The window closes on the deadline, never early: a fast minority must not
	// shorten it and a stalled minority must not stall the game.
	r.afterInPhase(r.cfg.Timings.QuestionTime, domain.PhaseQuestion, idx, r.reveal)
}

func (r *Room) reveal() {
	idx := r.questionIdx
	r.phase = domain.PhaseReveal

	correct := r.questions[idx].Correct
	for id, delta := range ScoreQuestion(r.submissions, correct) {
		if p, ok := r.byID[id]; ok {
			p.Score += delta
		}
	}

	ranked := make([]domain.RankEntry, 0, len(r.submissions))
	for _, sub := range correctRanking(r.submissions, correct) {
		p := r.byID[sub.ParticipantID]
		ranked = append(ranked, domain.RankEntry{
			ParticipantID: p.ID,
			Name:          p.Name,
			ElapsedMillis: sub.Elapsed.Milliseconds(),
		})
	}
	scores := make(map[string]int, len(r.roster))
	for _, p := range r.roster {
		scores[p.ID] = p.Score
	}
	r.bus.Broadcast(r.id, domain.Event{
		Type: domain.EventReveal,
		Payload: domain.RevealPayload{
			CorrectOption: correct,
			RankedCorrect: ranked,
			Scores:        scores,
		},
	})

	r.afterInPhase(r.cfg.Timings.RevealDelay, domain.PhaseReveal, idx, func() {
		r.startQuestion(idx + 1)
	})
}

func (r *Room) finish() {
	r.phase = domain.PhaseFinished

	standings := r.standings()
	r.bus.Broadcast(r.id, domain.Event{
		Type:    domain.EventFinalStandings,
		Payload: domain.FinalStandingsPayload{Ranked: standings},
	})

	if r.archive != nil {
		result := domain.GameResult{
			RoomID:     r.id,
			Topic:      r.cfg.Topic,
			Questions:  len(r.questions),
			Standings:  standings,
			FinishedAt: time.Now(),
		}
		// Archiving is best effort; a broken archive must not hold the teardown.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.archive.Save(ctx, result); err != nil {
				log.Printf("room %s: archive result: %v", r.id, err)
			}
		}()
	}
	r.teardown()
}

// standings sorts participants by score descending, ties broken by join order.
func (r *Room) standings() []domain.Standing {
	members := make([]*domain.Participant, len(r.roster))
	copy(members, r.roster)
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score > members[j].Score
		}
		return members[i].JoinOrder < members[j].JoinOrder
	})
	standings := make([]domain.Standing, 0, len(members))
	for _, p := range members {
		standings = append(standings, domain.Standing{
			ParticipantID: p.ID,
			Name:          p.Name,
			Score:         p.Score,
		})
	}
	return standings
}

func (r *Room) closeRoom(message string) {
	r.bus.Broadcast(r.id, domain.Event{
		Type:    domain.EventRoomClosed,
		Payload: domain.RoomClosedPayload{Message: message},
	})
	r.teardown()
}

// teardown runs on the room goroutine; after it, posts fail and the manager
// drops the room from the live set.
func (r *Room) teardown() {
	r.closed = true
	close(r.done)
	if r.onClose != nil {
		r.onClose(r.id)
	}
}
