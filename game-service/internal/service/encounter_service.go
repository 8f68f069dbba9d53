package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"pokedex-server/game-service/internal/repository"
	"pokedex-server/shared/interfaces"
	"pokedex-server/shared/models"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var capturesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "pokedex_captures_total",
	Help: "Total number of successfully persisted captures.",
})

// EncounterService defines the interface for the encounter lifecycle engine.
type EncounterService interface {
	// Spawn начинает новую встречу. target != nil - конкретный покемон,
	// nil - равномерно случайный из каталога. Предыдущая встреча пользователя
	// при этом всегда завершается.
	Spawn(ctx context.Context, userID uuid.UUID, target *int) (*models.EncounterSession, error)
	// AttemptCapture пытается поймать текущую цель пользователя.
	AttemptCapture(ctx context.Context, userID uuid.UUID) (*models.EncounterSession, error)
	// CurrentSession возвращает снимок текущей встречи пользователя.
	CurrentSession(userID uuid.UUID) (*models.EncounterSession, error)
	// EndSession завершает встречу (уход с экрана): таймер отменяется, состояние сбрасывается.
	EndSession(userID uuid.UUID)
	// ListCaptures возвращает коллекцию пойманных покемонов пользователя.
	ListCaptures(ctx context.Context, userID uuid.UUID) ([]models.CaptureRecord, error)
}

// Compile-time check
var _ EncounterService = (*encounterService)(nil)

// userState - все состояние встреч одного пользователя.
// Мьютекс сериализует spawn, capture и срабатывание таймера бегства между
// собой: внутри критической секции состояние меняется атомарно, включая
// запись поимки в хранилище.
type userState struct {
	mu      sync.Mutex
	session *models.EncounterSession
	detail  *models.CatalogDetail // Полная карточка текущей цели (для записи поимки)
	timer   *time.Timer
	fled    bool         // Цель последней встречи сбежала; сбрасывается spawn'ом или уходом с экрана
	caught  map[int]bool // Идентификаторы уже пойманных покемонов
	seeded  bool         // caught инициализирован из хранилища
}

type encounterService struct {
	catalog   repository.CatalogRepository
	captures  interfaces.CaptureRepository
	logger    *zap.Logger
	fleeAfter time.Duration

	mu    sync.Mutex
	users map[uuid.UUID]*userState

	// randIntn выделен полем, чтобы тесты могли сделать выбор детерминированным
	randIntn func(n int) int
}

// NewEncounterService creates the encounter engine.
func NewEncounterService(
	catalog repository.CatalogRepository,
	captures interfaces.CaptureRepository,
	fleeAfter time.Duration,
	logger *zap.Logger,
) EncounterService {
	return &encounterService{
		catalog:   catalog,
		captures:  captures,
		logger:    logger.Named("EncounterService"),
		fleeAfter: fleeAfter,
		users:     make(map[uuid.UUID]*userState),
		randIntn:  rand.Intn,
	}
}

// state возвращает состояние пользователя, создавая его при первом обращении.
func (s *encounterService) state(userID uuid.UUID) *userState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.users[userID]
	if !ok {
		st = &userState{caught: make(map[int]bool)}
		s.users[userID] = st
	}
	return st
}

// seedCaughtLocked загружает множество пойманных из хранилища при первом
// использовании. Ошибка загрузки не фатальна: множество останется пустым и
// будет перечитано при следующем spawn, а идемпотентная запись поимки
// гарантирует отсутствие дублей в любом случае.
// Вызывается строго под st.mu.
func (s *encounterService) seedCaughtLocked(ctx context.Context, userID uuid.UUID, st *userState) {
	if st.seeded {
		return
	}
	ids, err := s.captures.ListCapturedIDs(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to seed caught set, will retry on next spawn",
			zap.String("userID", userID.String()), zap.Error(err))
		return
	}
	for _, id := range ids {
		st.caught[id] = true
	}
	st.seeded = true
}

func (s *encounterService) Spawn(ctx context.Context, userID uuid.UUID, target *int) (*models.EncounterSession, error) {
	log := s.logger.With(zap.String("userID", userID.String()))

	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	s.seedCaughtLocked(ctx, userID, st)

	// Новая встреча всегда вытесняет предыдущую: таймер старой сессии
	// отменяется, а если он уже в полете - его колбэк увидит чужой токен
	// и ничего не сделает.
	s.clearSessionLocked(st)

	detail, err := s.resolveTarget(ctx, target)
	if err != nil {
		log.Warn("Failed to resolve spawn target", zap.Error(err))
		return nil, err
	}

	session := &models.EncounterSession{
		Token:         uuid.New(),
		PokemonID:     detail.ID,
		Name:          detail.Name,
		ImageURL:      detail.ImageURL,
		Types:         detail.Types,
		SpawnedAt:     time.Now().UTC(),
		AlreadyCaught: st.caught[detail.ID],
	}
	st.session = session
	st.detail = detail

	// Уже пойманный покемон не убегает - таймер не взводится
	if !session.AlreadyCaught {
		s.armFleeTimerLocked(userID, st, session.Token)
	}

	log.Info("Encounter spawned",
		zap.Int("pokemonID", session.PokemonID),
		zap.String("name", session.Name),
		zap.Bool("alreadyCaught", session.AlreadyCaught))

	snapshot := *session
	return &snapshot, nil
}

// resolveTarget выбирает цель встречи: явную по id либо случайную из списка.
// Явная цель без сети - ошибка, никакого случайного фолбэка.
func (s *encounterService) resolveTarget(ctx context.Context, target *int) (*models.CatalogDetail, error) {
	if target != nil {
		return s.catalog.GetDetail(ctx, *target)
	}

	summaries, err := s.catalog.GetSummaryList(ctx)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, models.ErrEmptyCatalog
	}
	pick := summaries[s.randIntn(len(summaries))]
	return s.catalog.GetDetail(ctx, pick.ID)
}

// armFleeTimerLocked взводит таймер бегства для сессии с данным токеном.
// Вызывается строго под st.mu.
func (s *encounterService) armFleeTimerLocked(userID uuid.UUID, st *userState, token uuid.UUID) {
	st.timer = time.AfterFunc(s.fleeAfter, func() {
		s.onFleeTimer(userID, token)
	})
}

// onFleeTimer - колбэк таймера бегства. Берет блокировку пользователя и
// сверяет токен: если сессия уже другая (или ее нет) - опоздавший колбэк
// молча завершается. Поимка и таймер гоняются за одной блокировкой: колбэк,
// дождавшийся коммита поимки под той же сессией, увидит AlreadyCaught и
// тоже ничего не сделает. Истекшая встреча очищается; остается только
// признак fled, чтобы попытка поимки отличалась от "встречи не было".
func (s *encounterService) onFleeTimer(userID uuid.UUID, token uuid.UUID) {
	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.session == nil || st.session.Token != token || st.session.AlreadyCaught {
		return // Сессия сменилась или цель уже поймана, срабатывание устарело
	}
	pokemonID := st.session.PokemonID
	s.clearSessionLocked(st)
	st.fled = true
	s.logger.Info("Encounter target fled",
		zap.String("userID", userID.String()),
		zap.Int("pokemonID", pokemonID))
}

func (s *encounterService) AttemptCapture(ctx context.Context, userID uuid.UUID) (*models.EncounterSession, error) {
	log := s.logger.With(zap.String("userID", userID.String()))

	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	switch {
	case st.session == nil && st.fled:
		return nil, models.ErrTargetFled
	case st.session == nil:
		return nil, models.ErrNoActiveEncounter
	case st.session.AlreadyCaught:
		// Повторная поимка - идемпотентный no-op
		snapshot := *st.session
		return &snapshot, nil
	}

	// Таймер останавливается на время записи; если запись не пройдет,
	// он будет взведен заново на полную длительность
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}

	record := models.CaptureRecord{
		PokemonID: st.detail.ID,
		Name:      st.detail.Name,
		ImageURL:  st.detail.ImageURL,
		Types:     st.detail.Types,
		Weight:    st.detail.Weight,
		Height:    st.detail.Height,
	}
	if err := s.captures.WriteCapture(ctx, userID, record); err != nil {
		// Запись не удалась: встреча остается активной, таймер - заново
		log.Error("Failed to persist capture, encounter stays active",
			zap.Int("pokemonID", record.PokemonID), zap.Error(err))
		s.armFleeTimerLocked(userID, st, st.session.Token)
		return nil, err
	}

	st.session.AlreadyCaught = true
	st.caught[record.PokemonID] = true
	capturesTotal.Inc()

	log.Info("Capture persisted",
		zap.Int("pokemonID", record.PokemonID),
		zap.String("name", record.Name))

	snapshot := *st.session
	return &snapshot, nil
}

func (s *encounterService) CurrentSession(userID uuid.UUID) (*models.EncounterSession, error) {
	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.session == nil {
		return nil, models.ErrNoActiveEncounter
	}
	snapshot := *st.session
	return &snapshot, nil
}

func (s *encounterService) EndSession(userID uuid.UUID) {
	st := s.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	s.clearSessionLocked(st)
}

func (s *encounterService) ListCaptures(ctx context.Context, userID uuid.UUID) ([]models.CaptureRecord, error) {
	return s.captures.ListCaptures(ctx, userID)
}

// clearSessionLocked отменяет таймер и сбрасывает текущую сессию вместе с
// признаком бегства. Вызывается строго под st.mu.
func (s *encounterService) clearSessionLocked(st *userState) {
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	st.session = nil
	st.detail = nil
	st.fled = false
}
