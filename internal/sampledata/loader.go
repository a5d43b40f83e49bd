package sampledata

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"custintel/internal/feedback"
	"custintel/pkg/errors"
	"custintel/pkg/logger"
)

// Loader resolves feedback records for a data source. Each source maps
// to a file in the sample directory; when no file exists, a
// deterministic synthetic set is generated so the pipeline always has
// something to analyze.
type Loader struct {
	dir     string
	company string
	product string
	log     *logger.Logger
}

// NewLoader creates a loader rooted at dir for the given company and
// product. The names seed synthetic generation so repeated runs for
// the same pair load identical data.
func NewLoader(dir, company, product string) *Loader {
	return &Loader{
		dir:     dir,
		company: company,
		product: product,
		log:     logger.Get().With("component", "sample_loader"),
	}
}

// fileForSource maps source names to their conventional file names.
var fileForSource = map[string]string{
	"reviews": "reviews.json",
	"tickets": "support_tickets.json",
	"surveys": "surveys.json",
}

// Load returns the records for one source: a JSON file if present, a
// CSV file as second choice, synthetic data otherwise.
func (l *Loader) Load(ctx context.Context, source string) ([]feedback.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filename, ok := fileForSource[source]
	if !ok {
		filename = source + ".json"
	}

	jsonPath := filepath.Join(l.dir, filename)
	if _, err := os.Stat(jsonPath); err == nil {
		records, err := loadJSON(jsonPath)
		if err == nil {
			l.log.Infof("Loaded %d records from %s", len(records), filename)
			return records, nil
		}
		l.log.Warnf("Failed to load %s: %v. Generating synthetic data.", filename, err)
	}

	csvPath := filepath.Join(l.dir, source+".csv")
	if _, err := os.Stat(csvPath); err == nil {
		records, err := loadCSV(csvPath)
		if err == nil {
			l.log.Infof("Loaded %d records from %s.csv", len(records), source)
			return records, nil
		}
		l.log.Warnf("Failed to load %s.csv: %v. Generating synthetic data.", source, err)
	}

	records := l.Synthesize(source, 20)
	l.log.Infof("Generated %d synthetic records for %s", len(records), source)
	return records, nil
}

func loadJSON(path string) ([]feedback.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	var records []feedback.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return records, nil
}

// loadCSV decodes a headered CSV file into records, converting numeric
// and boolean cells so rating statistics still work.
func loadCSV(path string) ([]feedback.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if len(rows) < 2 {
		return nil, errors.Wrapf(errors.ErrNoData, "%s has no data rows", path)
	}

	header := rows[0]
	records := make([]feedback.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := feedback.Record{}
		for i, cell := range row {
			if i >= len(header) || cell == "" {
				continue
			}
			record[header[i]] = coerceCell(cell)
		}
		records = append(records, record)
	}
	return records, nil
}

func coerceCell(cell string) any {
	if n, err := strconv.ParseFloat(cell, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(cell); err == nil {
		return b
	}
	return cell
}

// Synthesize generates count realistic records for one source, seeded
// by company, product and source name.
func (l *Loader) Synthesize(source string, count int) []feedback.Record {
	h := fnv.New64a()
	h.Write([]byte(l.company + l.product + source))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	records := make([]feedback.Record, 0, count)
	for i := 0; i < count; i++ {
		id := fmt.Sprintf("%04d", i)
		date := time.Now().AddDate(0, 0, -(rng.Intn(90) + 1)).Format("2006-01-02")

		switch source {
		case "tickets", "support_tickets":
			records = append(records, l.syntheticTicket(rng, id, date))
		case "surveys":
			records = append(records, l.syntheticSurvey(rng, id, date))
		default:
			records = append(records, l.syntheticReview(rng, id, date))
		}
	}
	return records
}

func (l *Loader) syntheticReview(rng *rand.Rand, id, date string) feedback.Record {
	titles := []string{
		"Excellent product!", "Good value", "Could be better", "Not satisfied",
		"Amazing quality", "Poor customer service", "Fast shipping", "Slow delivery",
		"Highly recommend", "Would not buy again",
	}
	texts := []string{
		fmt.Sprintf("The %s from %s works great and exceeded my expectations.", l.product, l.company),
		"Good quality product but the price is a bit high for what you get.",
		"I've had issues with this product. Customer service was not helpful.",
		"Fast shipping and excellent packaging. Very satisfied with my purchase.",
		"The product arrived damaged. Took forever to get a replacement.",
		"Best purchase I've made this year. Highly recommend to others.",
		"Average product. Does what it says but nothing special.",
		"Terrible experience. Will not be buying from this company again.",
		"Quality is outstanding. Worth every penny.",
		"Product is okay but the instructions were confusing.",
	}

	return feedback.Record{
		"id":                "review_" + id,
		"source":            "mock_review_platform",
		"rating":            rng.Intn(5) + 1,
		"title":             titles[rng.Intn(len(titles))],
		"text":              texts[rng.Intn(len(texts))],
		"date":              date,
		"verified_purchase": rng.Intn(2) == 0,
		"helpful_votes":     rng.Intn(51),
	}
}

func (l *Loader) syntheticTicket(rng *rand.Rand, id, date string) feedback.Record {
	subjects := []string{
		fmt.Sprintf("Delay in shipping order #%s", id),
		fmt.Sprintf("Issue with %s quality", l.product),
		"Billing question about recent purchase",
		"Return request for defective item",
		"Technical support needed",
	}
	descriptions := []string{
		fmt.Sprintf("I ordered the %s two weeks ago but haven't received it yet. Can you provide an update?", l.product),
		fmt.Sprintf("The %s I received doesn't work as expected. It's defective.", l.product),
		"I was charged twice for my order. Can you refund the duplicate charge?",
		fmt.Sprintf("I need to return the %s as it's not what I expected. How do I proceed?", l.product),
		fmt.Sprintf("I'm having trouble setting up the %s. The instructions are unclear.", l.product),
	}
	categories := []string{"shipping", "product_quality", "billing", "returns", "technical_support"}
	priorities := []string{"low", "medium", "high"}
	statuses := []string{"resolved", "pending", "closed"}

	record := feedback.Record{
		"id":           "ticket_" + id,
		"subject":      subjects[rng.Intn(len(subjects))],
		"description":  descriptions[rng.Intn(len(descriptions))],
		"category":     categories[rng.Intn(len(categories))],
		"priority":     priorities[rng.Intn(len(priorities))],
		"status":       statuses[rng.Intn(len(statuses))],
		"created_date": date,
	}
	if rng.Intn(2) == 0 {
		record["customer_satisfaction"] = rng.Intn(5) + 1
	}
	return record
}

func (l *Loader) syntheticSurvey(rng *rand.Rand, id, date string) feedback.Record {
	surveyTypes := []string{"post_purchase", "satisfaction", "feedback"}

	comments := ""
	if rng.Intn(2) == 0 {
		comments = fmt.Sprintf("Good experience with %s from %s. Would recommend to friends.", l.product, l.company)
	}

	return feedback.Record{
		"id":          "survey_" + id,
		"survey_type": surveyTypes[rng.Intn(len(surveyTypes))],
		"responses": map[string]any{
			"overall_satisfaction": rng.Intn(5) + 1,
			"likely_to_recommend":  rng.Intn(5) + 1,
			"value_for_money":      rng.Intn(5) + 1,
			"product_quality":      rng.Intn(5) + 1,
			"customer_service":     rng.Intn(5) + 1,
		},
		"comments": comments,
		"date":     date,
	}
}
