package sqldb

import (
	"context"
	"strings"
	"time"

	"randomchallenge/api/internal/models"

	"gorm.io/gorm"
)

type ChallengeRepository struct {
	DB *gorm.DB
}

func (r *ChallengeRepository) scoped(ctx context.Context, f models.ChallengeFilter) *gorm.DB {
	q := r.DB.WithContext(ctx).Model(&models.Challenge{})
	if !f.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if f.CategoryID != "" {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Difficulty != "" {
		q = q.Where("difficulty = ?", f.Difficulty)
	}
	if len(f.Tags) > 0 {
		// tags are stored as a JSON array; match any of the quoted values
		anyTag := r.DB.Where(tagMatch, tagPattern(f.Tags[0]))
		for _, tag := range f.Tags[1:] {
			anyTag = anyTag.Or(tagMatch, tagPattern(tag))
		}
		q = q.Where(anyTag)
	}
	return q
}

const tagMatch = `tags LIKE ? ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// tagPattern matches tag as one quoted element of the stored JSON array,
// with LIKE wildcards in tag taken literally.
func tagPattern(tag string) string {
	return `%"` + likeEscaper.Replace(tag) + `"%`
}

func orderFor(s models.ChallengeSort) string {
	switch s {
	case models.SortOldest:
		return "created_at ASC, id ASC"
	case models.SortMostCompleted:
		return "completed_count DESC, id ASC"
	case models.SortLeastCompleted:
		return "completed_count ASC, id ASC"
	case models.SortTopRated:
		return "rating_sum DESC, rating_count DESC, id ASC"
	default:
		return "created_at DESC, id ASC"
	}
}

func (r *ChallengeRepository) Count(ctx context.Context, filter models.ChallengeFilter) (int64, error) {
	var n int64
	if err := r.scoped(ctx, filter).Count(&n).Error; err != nil {
		return 0, models.StoreError("count challenges", err)
	}
	return n, nil
}

func (r *ChallengeRepository) FindOne(ctx context.Context, filter models.ChallengeFilter, offset int64) (*models.Challenge, error) {
	var c models.Challenge
	err := r.scoped(ctx, filter).Order("id ASC").Offset(int(offset)).Limit(1).Take(&c).Error
	if err != nil {
		return nil, translate("find challenge", err)
	}
	return &c, nil
}

func (r *ChallengeRepository) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	var c models.Challenge
	if err := r.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate("get challenge", err)
	}
	return &c, nil
}

func (r *ChallengeRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Challenge, error) {
	out := make(map[string]*models.Challenge, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var found []models.Challenge
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, models.StoreError("get challenges", err)
	}
	for i := range found {
		out[found[i].ID] = &found[i]
	}
	return out, nil
}

func (r *ChallengeRepository) List(ctx context.Context, filter models.ChallengeFilter, opts models.ListOptions) ([]models.Challenge, int64, error) {
	q := r.scoped(ctx, filter)
	if opts.RatedOnly {
		q = q.Where("rating_count > 0")
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.StoreError("count challenges", err)
	}

	q = q.Order(orderFor(opts.Sort)).Offset(opts.Offset())
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	out := []models.Challenge{}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, models.StoreError("list challenges", err)
	}
	return out, total, nil
}

func (r *ChallengeRepository) Create(ctx context.Context, c *models.Challenge) error {
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return translate("create challenge", r.DB.WithContext(ctx).Create(c).Error)
}

var challengeColumns = []string{"text", "category_id", "difficulty", "time_estimate", "tags", "is_active", "updated_at"}

// Update writes only the editable columns so counters moved by concurrent
// ratings are left alone.
func (r *ChallengeRepository) Update(ctx context.Context, id string, patch models.ChallengePatch) (*models.Challenge, error) {
	var c models.Challenge
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&c, "id = ?", id).Error; err != nil {
			return err
		}
		c.Apply(patch)
		c.UpdatedAt = time.Now().UTC()
		return tx.Model(&c).Select(challengeColumns).Updates(&c).Error
	})
	if err != nil {
		return nil, translate("update challenge", err)
	}
	return &c, nil
}

func (r *ChallengeRepository) SoftDelete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Model(&models.Challenge{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return models.StoreError("delete challenge", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ApplyRating increments the counters in SQL so concurrent ratings are
// never lost.
func (r *ChallengeRepository) ApplyRating(ctx context.Context, id string, rating int, completed bool) (*models.Challenge, error) {
	updates := map[string]interface{}{
		"rating_sum":   gorm.Expr("rating_sum + ?", rating),
		"rating_count": gorm.Expr("rating_count + 1"),
	}
	if completed {
		updates["completed_count"] = gorm.Expr("completed_count + 1")
	}

	var c models.Challenge
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Challenge{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&c, "id = ?", id).Error
	})
	if err != nil {
		return nil, translate("apply rating", err)
	}
	return &c, nil
}

type groupCount struct {
	GroupKey string
	Total    int64
}

func (r *ChallengeRepository) countBy(ctx context.Context, column string) ([]groupCount, error) {
	var rows []groupCount
	err := r.DB.WithContext(ctx).Model(&models.Challenge{}).
		Select(column+" AS group_key, COUNT(*) AS total").
		Where("is_active = ?", true).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, models.StoreError("count challenges by "+column, err)
	}
	return rows, nil
}

func (r *ChallengeRepository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	rows, err := r.countBy(ctx, "category_id")
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.GroupKey] = row.Total
	}
	return out, nil
}

func (r *ChallengeRepository) CountByDifficulty(ctx context.Context) (map[models.Difficulty]int64, error) {
	rows, err := r.countBy(ctx, "difficulty")
	if err != nil {
		return nil, err
	}
	out := make(map[models.Difficulty]int64, len(rows))
	for _, row := range rows {
		out[models.Difficulty(row.GroupKey)] = row.Total
	}
	return out, nil
}
