package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/flowmasterhq/flowmaster-be/internal/models"
)

// Bounds on the number of task snapshots a daily card may hold.
const (
	minCardTasks = 1
	maxCardTasks = 5
)

// recentCardWindow is how many cards a list query returns, newest first.
const recentCardWindow = 30

// DailyCardServiceProvider defines the interface for daily card services.
type DailyCardServiceProvider interface {
	GetRecentCards(userID string) ([]models.DailyCard, error)
	GetTodayCard(userID string) (models.DailyCard, error)
	CreateCard(userID, date string, taskRefs []models.CardTask) (models.DailyCard, error)
	UpdateCard(userID, cardID string, taskRefs []models.CardTask) (models.DailyCard, error)
	AddAccomplishment(userID, cardID string, entry models.Accomplishment) (models.Accomplishment, error)
}

// DailyCardService provides business logic for daily cards. Cards are keyed
// by (owner, calendar date); task snapshot resolution goes through the task
// service so references are validated against the same owner scope.
type DailyCardService struct {
	db    *sql.DB
	tasks TaskServiceProvider
}

// NewDailyCardService creates a new DailyCardService.
func NewDailyCardService(db *sql.DB, tasks TaskServiceProvider) *DailyCardService {
	return &DailyCardService{db: db, tasks: tasks}
}

const cardColumns = "id, user_id, date, tasks_json, accomplishments_json, created_at, updated_at"

func scanCard(scanner interface{ Scan(...interface{}) error }) (models.DailyCard, error) {
	var card models.DailyCard
	var tasks, accs sql.NullString

	err := scanner.Scan(
		&card.ID, &card.UserID, &card.Date, &tasks, &accs,
		&card.CreatedAt, &card.UpdatedAt,
	)
	if err != nil {
		return card, err
	}

	card.TasksJSON = tasks.String
	card.AccomplishmentsJSON = accs.String
	card.PrepareForAPI()
	return card, nil
}

// GetRecentCards retrieves the user's most recent cards by date, descending.
func (s *DailyCardService) GetRecentCards(userID string) ([]models.DailyCard, error) {
	rows, err := s.db.Query("SELECT "+cardColumns+" FROM daily_cards WHERE user_id = ? ORDER BY date DESC LIMIT ?",
		userID, recentCardWindow)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := []models.DailyCard{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// GetTodayCard retrieves the user's card for the current UTC date.
func (s *DailyCardService) GetTodayCard(userID string) (models.DailyCard, error) {
	today := time.Now().UTC().Format(models.CardDateLayout)
	row := s.db.QueryRow("SELECT "+cardColumns+" FROM daily_cards WHERE user_id = ? AND date = ?", userID, today)
	card, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.DailyCard{}, ErrCardNotFound
		}
		return models.DailyCard{}, err
	}
	return card, nil
}

// CreateCard creates the user's card for a date, defaulting to the current
// UTC date. At most one card may exist per (user, date); the existence check
// runs before the task refs are validated. Each task ref must resolve to a
// task owned by the same user, and a ref without a title snapshots the live
// task's title.
func (s *DailyCardService) CreateCard(userID, date string, taskRefs []models.CardTask) (models.DailyCard, error) {
	if date == "" {
		date = time.Now().UTC().Format(models.CardDateLayout)
	}

	var exists int
	if err := s.db.QueryRow("SELECT COUNT(1) FROM daily_cards WHERE user_id = ? AND date = ?", userID, date).Scan(&exists); err != nil {
		return models.DailyCard{}, err
	}
	if exists > 0 {
		return models.DailyCard{}, ErrCardExistsForDate
	}

	if len(taskRefs) < minCardTasks || len(taskRefs) > maxCardTasks {
		return models.DailyCard{}, ErrTaskCountOutOfRange
	}

	snapshots := make([]models.CardTask, 0, len(taskRefs))
	for _, ref := range taskRefs {
		task, err := s.tasks.GetTaskByID(userID, ref.TaskID)
		if err != nil {
			return models.DailyCard{}, err
		}
		title := ref.Title
		if title == "" {
			title = task.Title
		}
		snapshots = append(snapshots, models.CardTask{
			TaskID:      ref.TaskID,
			Title:       title,
			IsCompleted: ref.IsCompleted,
		})
	}

	now := time.Now().UTC()
	card := models.DailyCard{
		ID:              uuid.New().String(),
		UserID:          userID,
		Date:            date,
		Tasks:           snapshots,
		Accomplishments: []models.Accomplishment{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	card.PrepareForSave()

	stmt, err := s.db.Prepare("INSERT INTO daily_cards(id, user_id, date, tasks_json, accomplishments_json, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return models.DailyCard{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(card.ID, card.UserID, card.Date, card.TasksJSON, card.AccomplishmentsJSON, card.CreatedAt, card.UpdatedAt)
	if err != nil {
		return models.DailyCard{}, err
	}
	return card, nil
}

// UpdateCard replaces a card's task subset wholesale. A nil taskRefs leaves
// the subset untouched; updated-at is refreshed either way.
func (s *DailyCardService) UpdateCard(userID, cardID string, taskRefs []models.CardTask) (models.DailyCard, error) {
	card, err := s.getCardByID(userID, cardID)
	if err != nil {
		return models.DailyCard{}, err
	}

	if taskRefs != nil {
		if len(taskRefs) < minCardTasks || len(taskRefs) > maxCardTasks {
			return models.DailyCard{}, ErrTaskCountOutOfRange
		}
		card.Tasks = taskRefs
	}
	card.UpdatedAt = time.Now().UTC()
	card.PrepareForSave()

	_, err = s.db.Exec("UPDATE daily_cards SET tasks_json = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		card.TasksJSON, card.UpdatedAt, cardID, userID)
	if err != nil {
		return models.DailyCard{}, err
	}
	return card, nil
}

// AddAccomplishment appends an entry to a card's accomplishment list and
// returns the stored entry. Entries are never removed or edited.
func (s *DailyCardService) AddAccomplishment(userID, cardID string, entry models.Accomplishment) (models.Accomplishment, error) {
	card, err := s.getCardByID(userID, cardID)
	if err != nil {
		return models.Accomplishment{}, err
	}

	card.Accomplishments = append(card.Accomplishments, entry)
	card.UpdatedAt = time.Now().UTC()
	card.PrepareForSave()

	_, err = s.db.Exec("UPDATE daily_cards SET accomplishments_json = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		card.AccomplishmentsJSON, card.UpdatedAt, cardID, userID)
	if err != nil {
		return models.Accomplishment{}, err
	}
	return entry, nil
}

func (s *DailyCardService) getCardByID(userID, cardID string) (models.DailyCard, error) {
	row := s.db.QueryRow("SELECT "+cardColumns+" FROM daily_cards WHERE id = ? AND user_id = ?", cardID, userID)
	card, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.DailyCard{}, ErrCardNotFound
		}
		return models.DailyCard{}, err
	}
	return card, nil
}
