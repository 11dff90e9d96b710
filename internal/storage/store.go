// Package storage provides MongoDB persistence for Oracle reports and
// the durable COT positioning cache.
package storage

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quantbrief/oracle/internal/models"
)

// Store provides access to all MongoDB collections.
type Store struct {
	client   *mongo.Client
	db       *mongo.Database
	reports  *mongo.Collection
	cotCache *mongo.Collection
}

// NewStore creates a new storage connection.
func NewStore(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	log.Info().Str("db", dbName).Msg("Connected to MongoDB")

	store := &Store{
		client:   client,
		db:       db,
		reports:  db.Collection("reports"),
		cotCache: db.Collection("cot_cache"),
	}

	if err := store.createIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create some indexes")
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) createIndexes(ctx context.Context) error {
	reportIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "date", Value: -1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "regime", Value: 1}}},
	}
	if _, err := s.reports.Indexes().CreateMany(ctx, reportIndexes); err != nil {
		log.Warn().Err(err).Msg("Failed to create report indexes")
	}
	return nil
}

// SaveReport inserts or updates the report for its type and date.
// Re-running a pipeline for the same day overwrites in place.
func (s *Store) SaveReport(ctx context.Context, report *models.Report) error {
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}

	filter := bson.M{"type": report.Type, "date": report.Date}
	update := bson.M{"$set": bson.M{
		"type":       report.Type,
		"date":       report.Date,
		"title":      report.Title,
		"markdown":   report.Markdown,
		"regime":     report.Regime,
		"confidence": report.Confidence,
		"sources":    report.Sources,
		"created_at": report.CreatedAt,
	}}
	opts := options.Update().SetUpsert(true)

	_, err := s.reports.UpdateOne(ctx, filter, update, opts)
	return err
}

// GetReport returns the report for a type and date.
func (s *Store) GetReport(ctx context.Context, reportType models.ReportType, date string) (*models.Report, error) {
	var report models.Report
	err := s.reports.FindOne(ctx, bson.M{"type": reportType, "date": date}).Decode(&report)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// GetRecentReports returns the most recent reports across all types.
func (s *Store) GetRecentReports(ctx context.Context, limit int) ([]models.Report, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.reports.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reports []models.Report
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// GetReportsByType returns recent reports of one type.
func (s *Store) GetReportsByType(ctx context.Context, reportType models.ReportType, limit int) ([]models.Report, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.reports.Find(ctx, bson.M{"type": reportType}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reports []models.Report
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// Stats holds general statistics.
type Stats struct {
	TotalReports int64  `json:"total_reports"`
	TodayReports int64  `json:"today_reports"`
	LatestRegime string `json:"latest_regime"`
}

// GetStats returns general statistics.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	var err error
	stats.TotalReports, err = s.reports.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	today := time.Now().Format("2006-01-02")
	stats.TodayReports, err = s.reports.CountDocuments(ctx, bson.M{"date": today})
	if err != nil {
		return nil, err
	}

	var latest models.Report
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := s.reports.FindOne(ctx, bson.M{}, opts).Decode(&latest); err == nil {
		stats.LatestRegime = string(latest.Regime)
	}

	return stats, nil
}
