package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/calorilog/internal/diary"
	"github.com/fyrsmithlabs/calorilog/internal/kvstore"
)

// Store keys. Each holds one independently encoded JSON value.
const (
	KeyFoodLogs   = "foodLogs"
	KeyCredential = "gemini-api-key"
	KeyGoals      = "userGoals"
	KeyWeights    = "weightLogs"
	KeyTheme      = "themeMode"
)

// State is everything the tracker persists.
type State struct {
	FoodLog diary.FoodLog
	Goals   diary.UserGoals
	Weights diary.WeightLog
	// Credential is empty when none is stored.
	Credential string
	Theme      diary.Theme
}

// Repository loads and commits tracker state. Each Save commits one key;
// there is no multi-key transaction.
type Repository interface {
	Load(ctx context.Context) (State, error)
	SaveFoodLog(ctx context.Context, log diary.FoodLog) error
	SaveGoals(ctx context.Context, goals diary.UserGoals) error
	SaveWeights(ctx context.Context, log diary.WeightLog) error
	SaveCredential(ctx context.Context, credential string) error
	SaveTheme(ctx context.Context, theme diary.Theme) error
}

// KVRepository keeps state in a kvstore.Store.
type KVRepository struct {
	foodLog    *kvstore.Key[diary.FoodLog]
	goals      *kvstore.Key[diary.UserGoals]
	weights    *kvstore.Key[diary.WeightLog]
	credential *kvstore.Key[*string]
	theme      *kvstore.Key[diary.Theme]
}

// NewKVRepository binds the tracker keys to s.
func NewKVRepository(s kvstore.Store, logger *zap.Logger) *KVRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KVRepository{
		foodLog:    kvstore.NewKey(s, KeyFoodLogs, func() diary.FoodLog { return diary.FoodLog{} }, logger),
		goals:      kvstore.NewKey(s, KeyGoals, diary.DefaultGoals, logger),
		weights:    kvstore.NewKey(s, KeyWeights, func() diary.WeightLog { return diary.WeightLog{} }, logger),
		credential: kvstore.NewKey(s, KeyCredential, func() *string { return nil }, logger),
		theme:      kvstore.NewKey(s, KeyTheme, func() diary.Theme { return diary.ThemeLight }, logger),
	}
}

// Load implements Repository. Missing or corrupt keys read as defaults.
func (r *KVRepository) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	st := State{
		FoodLog: r.foodLog.Get(ctx),
		Goals:   r.goals.Get(ctx),
		Weights: r.weights.Get(ctx),
		Theme:   r.theme.Get(ctx),
	}
	if st.FoodLog == nil {
		st.FoodLog = diary.FoodLog{}
	}
	if st.Weights == nil {
		st.Weights = diary.WeightLog{}
	}
	if theme, err := diary.ParseTheme(string(st.Theme)); err == nil {
		st.Theme = theme
	} else {
		st.Theme = diary.ThemeLight
	}
	if c := r.credential.Get(ctx); c != nil {
		st.Credential = *c
	}
	return st, nil
}

// SaveFoodLog implements Repository.
func (r *KVRepository) SaveFoodLog(ctx context.Context, log diary.FoodLog) error {
	return r.foodLog.Set(ctx, log)
}

// SaveGoals implements Repository.
func (r *KVRepository) SaveGoals(ctx context.Context, goals diary.UserGoals) error {
	return r.goals.Set(ctx, goals)
}

// SaveWeights implements Repository.
func (r *KVRepository) SaveWeights(ctx context.Context, log diary.WeightLog) error {
	return r.weights.Set(ctx, log)
}

// SaveCredential implements Repository. An empty credential clears the key.
func (r *KVRepository) SaveCredential(ctx context.Context, credential string) error {
	if credential == "" {
		return r.credential.Clear(ctx)
	}
	return r.credential.Set(ctx, &credential)
}

// SaveTheme implements Repository.
func (r *KVRepository) SaveTheme(ctx context.Context, theme diary.Theme) error {
	return r.theme.Set(ctx, theme)
}

var _ Repository = (*KVRepository)(nil)
