package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/course-planner-api/internal/models"
)

type memCourseRepo struct {
	items     map[string]*models.CourseProgress
	findErr   error
	listErr   error
	updateErr error
	marked    map[string]time.Time
	deleted   []string
	pairs     map[string]bool
}

func newMemCourseRepo(items ...models.CourseProgress) *memCourseRepo {
	repo := &memCourseRepo{items: map[string]*models.CourseProgress{}, marked: map[string]time.Time{}, pairs: map[string]bool{}}
	for i := range items {
		cp := items[i]
		repo.items[cp.ID] = &cp
	}
	return repo
}

func (m *memCourseRepo) FindByID(ctx context.Context, id string) (*models.CourseProgress, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	cp, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *cp
	return &clone, nil
}

func (m *memCourseRepo) List(ctx context.Context, filter models.CourseProgressFilter) ([]models.CourseProgress, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.CourseProgress
	for _, cp := range m.items {
		if filter.UserID != "" && cp.UserID != filter.UserID {
			continue
		}
		if filter.ExcludeID != "" && cp.ID == filter.ExcludeID {
			continue
		}
		if filter.Status != "" && cp.Status != filter.Status {
			continue
		}
		out = append(out, *cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memCourseRepo) ExistsForPair(ctx context.Context, userID, classID, subjectID string) (bool, error) {
	for _, cp := range m.items {
		if cp.UserID == userID && cp.ClassID == classID && cp.SubjectID == subjectID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCourseRepo) Create(ctx context.Context, cp *models.CourseProgress) error {
	if cp.ID == "" {
		cp.ID = fmt.Sprintf("cp-%d", len(m.items)+1)
	}
	clone := *cp
	m.items[cp.ID] = &clone
	return nil
}

func (m *memCourseRepo) Update(ctx context.Context, cp *models.CourseProgress) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	clone := *cp
	m.items[cp.ID] = &clone
	return nil
}

func (m *memCourseRepo) MarkAutoScheduled(ctx context.Context, id string, at time.Time) error {
	m.marked[id] = at
	if cp, ok := m.items[id]; ok {
		cp.AutoScheduled = true
	}
	return nil
}

func (m *memCourseRepo) DeleteCascade(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

type memSubjectRepo struct {
	items   map[string]models.Subject
	findErr error
}

func newMemSubjectRepo(items ...models.Subject) *memSubjectRepo {
	repo := &memSubjectRepo{items: map[string]models.Subject{}}
	for _, s := range items {
		repo.items[s.ID] = s
	}
	return repo
}

func (m *memSubjectRepo) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	s, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (m *memSubjectRepo) ListByUser(ctx context.Context, userID string) ([]models.Subject, error) {
	var out []models.Subject
	for _, s := range m.items {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	subject.ID = fmt.Sprintf("subject-%d", len(m.items)+1)
	m.items[subject.ID] = *subject
	return nil
}

type memClassRepo struct {
	items map[string]models.Class
}

func newMemClassRepo(items ...models.Class) *memClassRepo {
	repo := &memClassRepo{items: map[string]models.Class{}}
	for _, c := range items {
		repo.items[c.ID] = c
	}
	return repo
}

func (m *memClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

type memLessonRepo struct {
	items   []models.Lesson
	listErr error
}

func (m *memLessonRepo) ListBySubject(ctx context.Context, subjectID string) ([]models.Lesson, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Lesson
	for _, l := range m.items {
		if l.SubjectID == subjectID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memLessonRepo) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	for _, l := range m.items {
		if l.ID == id {
			lesson := l
			return &lesson, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memLessonRepo) ExistsByLabel(ctx context.Context, subjectID, label, excludeID string) (bool, error) {
	for _, l := range m.items {
		if l.SubjectID == subjectID && l.ID != excludeID && strings.EqualFold(l.Label, label) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memLessonRepo) Create(ctx context.Context, lesson *models.Lesson) error {
	lesson.ID = fmt.Sprintf("lesson-%d", len(m.items)+1)
	m.items = append(m.items, *lesson)
	return nil
}

func (m *memLessonRepo) Update(ctx context.Context, lesson *models.Lesson) error {
	for i := range m.items {
		if m.items[i].ID == lesson.ID {
			m.items[i] = *lesson
		}
	}
	return nil
}

func (m *memLessonRepo) Delete(ctx context.Context, id string) error {
	out := m.items[:0]
	for _, l := range m.items {
		if l.ID != id {
			out = append(out, l)
		}
	}
	m.items = out
	return nil
}

type memProgressRepo struct {
	items       []models.LessonProgress
	seq         int
	createErr   error
	failOnWrite int
	writes      int
	updatedIDs  []string
}

func (m *memProgressRepo) write() error {
	m.writes++
	if m.failOnWrite > 0 && m.writes == m.failOnWrite {
		return m.createErr
	}
	return nil
}

func (m *memProgressRepo) FindByID(ctx context.Context, id string) (*models.LessonProgress, error) {
	for _, lp := range m.items {
		if lp.ID == id {
			item := lp
			return &item, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memProgressRepo) ListByCourse(ctx context.Context, courseProgressID string) ([]models.LessonProgress, error) {
	var out []models.LessonProgress
	for _, lp := range m.items {
		if lp.CourseProgressID == courseProgressID {
			out = append(out, lp)
		}
	}
	return out, nil
}

func (m *memProgressRepo) FindByLesson(ctx context.Context, courseProgressID, lessonID string) (*models.LessonProgress, error) {
	for _, lp := range m.items {
		if lp.CourseProgressID == courseProgressID && lp.LessonID == lessonID {
			item := lp
			return &item, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memProgressRepo) Create(ctx context.Context, lp *models.LessonProgress) error {
	if err := m.write(); err != nil {
		return err
	}
	m.seq++
	lp.ID = fmt.Sprintf("lp-%d", m.seq)
	m.items = append(m.items, *lp)
	return nil
}

func (m *memProgressRepo) Update(ctx context.Context, lp *models.LessonProgress) error {
	for i := range m.items {
		if m.items[i].ID == lp.ID {
			m.items[i] = *lp
		}
	}
	return nil
}

func (m *memProgressRepo) UpdateSchedule(ctx context.Context, id string, schedule models.LessonProgressSchedule) error {
	if err := m.write(); err != nil {
		return err
	}
	for i := range m.items {
		if m.items[i].ID == id {
			date := schedule.ScheduledDate
			duration := schedule.ScheduledDuration
			m.items[i].Status = schedule.Status
			m.items[i].ScheduledDate = &date
			m.items[i].ScheduledDuration = &duration
		}
	}
	m.updatedIDs = append(m.updatedIDs, id)
	return nil
}

func (m *memProgressRepo) DeleteByStatus(ctx context.Context, courseProgressID, status string) (int64, error) {
	var removed int64
	out := m.items[:0]
	for _, lp := range m.items {
		if lp.CourseProgressID == courseProgressID && lp.Status == status {
			removed++
			continue
		}
		out = append(out, lp)
	}
	m.items = out
	return removed, nil
}

func (m *memProgressRepo) Delete(ctx context.Context, id string) error {
	out := m.items[:0]
	for _, lp := range m.items {
		if lp.ID != id {
			out = append(out, lp)
		}
	}
	m.items = out
	return nil
}
