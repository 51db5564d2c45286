// Package records stores the league's record book and championship history.
// The feed lives in the document store; these tables are relational and
// change once a season, so they sit in Postgres.
package records

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Record groups shown on the record-book page.
const (
	GroupSeason = "season"
	GroupGame   = "game"
	GroupStreak = "streak"
)

// LeagueRecord is one record-book entry. Records shared by multiple holders
// appear as one row per holder with the same category and value.
type LeagueRecord struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Group    string `json:"group" gorm:"column:record_group;index"`
	Category string `json:"category" gorm:"index"`
	Value    string `json:"value"`
	Holder   string `json:"holder"`
	Year     string `json:"year"`
}

// Championship is one season's title result.
type Championship struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Season   int    `json:"season" gorm:"uniqueIndex"`
	TeamName string `json:"teamName"`
	Owner    string `json:"owner"`
	RunnerUp string `json:"runnerUp"`
}

// Repository reads and seeds the record tables.
type Repository interface {
	ListRecords(ctx context.Context) ([]LeagueRecord, error)
	ListChampionships(ctx context.Context) ([]Championship, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository migrates the record tables and returns a repository over
// them.
func NewRepository(db *gorm.DB) (Repository, error) {
	if err := db.AutoMigrate(&LeagueRecord{}, &Championship{}); err != nil {
		return nil, fmt.Errorf("migrate record tables: %w", err)
	}
	return &gormRepository{db: db}, nil
}

// ListRecords returns the record book grouped by insertion order: season
// records first, then game, then streak.
func (r *gormRepository) ListRecords(ctx context.Context) ([]LeagueRecord, error) {
	var records []LeagueRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// ListChampionships returns the title history, newest season first.
func (r *gormRepository) ListChampionships(ctx context.Context) ([]Championship, error) {
	var championships []Championship
	if err := r.db.WithContext(ctx).Order("season desc").Find(&championships).Error; err != nil {
		return nil, fmt.Errorf("list championships: %w", err)
	}
	return championships, nil
}

// Seed loads the record book when the table is empty. Safe to run on every
// startup.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&LeagueRecord{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count records: %w", err)
	}
	if count > 0 {
		return nil
	}
	if err := db.Create(seedRecords()).Error; err != nil {
		return fmt.Errorf("seed records: %w", err)
	}
	return nil
}

func seedRecords() []LeagueRecord {
	return []LeagueRecord{
		{Group: GroupSeason, Category: "Most Points Per Game Scored in a Season", Value: "129.47", Holder: "Glen Halperin", Year: "2013"},
		{Group: GroupSeason, Category: "Fewest Points Per Game Scored in a Season", Value: "85.30*", Holder: "Andrew David", Year: "2023"},
		{Group: GroupSeason, Category: "Most Points Against Per Game in a Season", Value: "124.13", Holder: "Dylan Frank", Year: "2021"},
		{Group: GroupSeason, Category: "Fewest Points Against Per Game in a Season", Value: "88.90", Holder: "Matt Nese", Year: "2023"},
		{Group: GroupSeason, Category: "Most Wins in a Season", Value: "13", Holder: "Matt Hill", Year: "2021"},
		{Group: GroupSeason, Category: "Fewest Wins in a Season", Value: "2", Holder: "Stevie Woodrow", Year: "2011"},
		{Group: GroupSeason, Category: "Fewest Wins in a Season", Value: "2", Holder: "Andrew Stimmel", Year: "2016"},
		{Group: GroupSeason, Category: "Fewest Wins in a Season", Value: "2", Holder: "Ryan Walde", Year: "2022"},
		{Group: GroupSeason, Category: "Most Add/Drops in a Season", Value: "77", Holder: "Colin Scarola", Year: "2020"},
		{Group: GroupSeason, Category: "Fewest Add/Drops in a Season", Value: "4", Holder: "Scott Zigarovich", Year: "2024"},
		{Group: GroupSeason, Category: "Highest Total Point Differential", Value: "392.80", Holder: "Glen Halperin", Year: "2013"},
		{Group: GroupSeason, Category: "Lowest Total Point Differential", Value: "-307.90", Holder: "Ian Very", Year: "2014"},
		{Group: GroupSeason, Category: "Best Point Differential to Miss Playoffs", Value: "127.12", Holder: "Matt Nese", Year: "2021"},
		{Group: GroupSeason, Category: "Worst Point Differential to Make Playoffs", Value: "-154.38", Holder: "Andrew David", Year: "2023"},
		{Group: GroupSeason, Category: "Most FAB Left At End of Season", Value: "$100", Holder: "Dylan Frank", Year: "2020"},
		{Group: GroupSeason, Category: "Most Money Spent on a Free Agent", Value: "$91*", Holder: "Ryan Walde (DeVon Achane)", Year: "2023"},
		{Group: GroupSeason, Category: "Most Money Spent on a Draft Pick", Value: "$81", Holder: "Curtis David (Christian McCaffrey)", Year: "2020"},
		{Group: GroupGame, Category: "Fewest Points in a Win", Value: "67.10", Holder: "Carson Custer (over Matt Hill)", Year: "2011 (Wk 5)"},
		{Group: GroupGame, Category: "Most Points in a Loss", Value: "153.70", Holder: "Eric Hagen (loss to Andrew David)", Year: "2015 (Wk 13)"},
		{Group: GroupGame, Category: "Largest Margin of Victory", Value: "94.41", Holder: "Matt Nese (over Glen Halperin)", Year: "2021 (Wk 8)"},
		{Group: GroupGame, Category: "Smallest Margin of Victory", Value: "0.02", Holder: "Chris Fedishen (over Matt Nese)", Year: "2021 (Wk 13)"},
		{Group: GroupStreak, Category: "Longest Win Streak", Value: "11", Holder: "Ian Very", Year: "2016"},
		{Group: GroupStreak, Category: "Longest Losing Streak", Value: "9", Holder: "Cheese & Platz", Year: "2021"},
		{Group: GroupStreak, Category: "Longest Losing Streak", Value: "9", Holder: "Curtis David", Year: "2024"},
		{Group: GroupStreak, Category: "Consecutive Games Over 100 Points", Value: "12", Holder: "Ian Very", Year: "2016"},
		{Group: GroupStreak, Category: "Consecutive Games Under 100 Points", Value: "13", Holder: "Andrew Simmel", Year: "2016"},
		{Group: GroupStreak, Category: "Consecutive Seasons Making the Playoffs", Value: "5", Holder: "Dylan Frank", Year: "2012-2016"},
		{Group: GroupStreak, Category: "Consecutive Seasons Making the Playoffs", Value: "5", Holder: "Greg Lim", Year: "2017-2021"},
		{Group: GroupStreak, Category: "Consecutive Seasons Missing the Playoffs", Value: "5", Holder: "Glen Halperin", Year: "2014-2018"},
		{Group: GroupStreak, Category: "Consecutive Seasons Missing the Playoffs", Value: "5", Holder: "Dylan Frank", Year: "2017-2021"},
		{Group: GroupStreak, Category: "Consecutive Seasons with a Losing Record", Value: "5", Holder: "Glen Halperin", Year: "2014-2018"},
		{Group: GroupStreak, Category: "Consecutive Seasons .500 or Better", Value: "5", Holder: "Dylan Frank", Year: "2011-2018"},
	}
}
