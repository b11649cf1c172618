package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/deskworks/service-desk/internal/domain"
)

// EntryFilter narrows entry listings. A zero Limit lists everything.
type EntryFilter struct {
	OwnerID   *string
	Kind      *domain.EntryKind
	Statuses  []domain.Status
	VisitFrom *time.Time
	VisitTo   *time.Time
	Limit     int
	Offset    int
}

// EntryRepository persists tickets and service requests with their timelines.
// Every method is atomic for a single entry.
type EntryRepository interface {
	Create(ctx context.Context, entry *domain.Entry) error
	Update(ctx context.Context, entry *domain.Entry) error
	GetByID(ctx context.Context, id string) (*domain.Entry, error)
	ListWithFilter(ctx context.Context, filter EntryFilter) ([]domain.Entry, error)
	AppendNote(ctx context.Context, entryID string, note *domain.TimelineEntry) error
	UpdateWithNote(ctx context.Context, entry *domain.Entry, note *domain.TimelineEntry) error
	MarkSeen(ctx context.Context, entryID string, index int, viewerID string) error
	Delete(ctx context.Context, id string) error
}

// dbtx is satisfied by both the pool and a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type entryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository returns a Postgres-backed implementation.
func NewEntryRepository(pool *pgxpool.Pool) EntryRepository {
	return &entryRepository{pool: pool}
}

// quoteDocument is the JSONB shape of a price quotation.
type quoteDocument struct {
	Items []domain.PriceLine `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

const entryColumns = `id::text, kind, public_id, owner_id, title, description, category, status,
       preferred_visit_at, assigned_visit_at, completed_at, created_at, updated_at`

func (r *entryRepository) Create(ctx context.Context, entry *domain.Entry) error {
	const query = `
        INSERT INTO entries (kind, public_id, owner_id, title, description, category, status, preferred_visit_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id::text, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		entry.Kind,
		entry.PublicID,
		entry.OwnerID,
		entry.Title,
		entry.Description,
		entry.Category,
		entry.Status,
		entry.PreferredVisitAt,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
}

func (r *entryRepository) Update(ctx context.Context, entry *domain.Entry) error {
	return updateEntry(ctx, r.pool, entry)
}

func updateEntry(ctx context.Context, db dbtx, entry *domain.Entry) error {
	const query = `
        UPDATE entries SET status=$1, assigned_visit_at=$2, completed_at=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	err := db.QueryRow(ctx, query,
		entry.Status,
		entry.AssignedVisitAt,
		entry.CompletedAt,
		entry.ID,
	).Scan(&entry.UpdatedAt)
	return err
}

func (r *entryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id=$1`
	entry, err := scanEntry(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	timelines, err := r.loadTimelines(ctx, []string{entry.ID})
	if err != nil {
		return nil, err
	}
	entry.Timeline = timelines[entry.ID]
	return entry, nil
}

func (r *entryRepository) ListWithFilter(ctx context.Context, filter EntryFilter) ([]domain.Entry, error) {
	query, args := buildListQuery(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Entry
	ids := []string{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *entry)
		ids = append(ids, entry.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return result, nil
	}

	timelines, err := r.loadTimelines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Timeline = timelines[result[i].ID]
	}
	return result, nil
}

func (r *entryRepository) AppendNote(ctx context.Context, entryID string, note *domain.TimelineEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := insertNote(ctx, tx, entryID, note); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, `UPDATE entries SET updated_at=NOW() WHERE id=$1`, entryID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

// UpdateWithNote persists the scalar fields of entry and appends note in
// one transaction, so a failed half leaves no trace.
func (r *entryRepository) UpdateWithNote(ctx context.Context, entry *domain.Entry, note *domain.TimelineEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := updateEntry(ctx, tx, entry); err != nil {
		return err
	}
	if err := insertNote(ctx, tx, entry.ID, note); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// MarkSeen unions viewerID into the seen set of the index-th note. The
// update is a single statement, so concurrent viewers never overwrite one
// another. Marking an already-seen note affects no rows and is not an error.
func (r *entryRepository) MarkSeen(ctx context.Context, entryID string, index int, viewerID string) error {
	const query = `
        UPDATE entry_timeline SET seen_by = array_append(seen_by, $3)
        WHERE id = (SELECT id FROM entry_timeline WHERE entry_id=$1 ORDER BY id OFFSET $2 LIMIT 1)
          AND NOT ($3 = ANY(seen_by))`
	_, err := r.pool.Exec(ctx, query, entryID, index, viewerID)
	return err
}

func (r *entryRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM entries WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// buildListQuery renders the filtered listing statement with positional args.
func buildListQuery(filter EntryFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id=$%d", len(args)))
	}
	if filter.Kind != nil {
		args = append(args, *filter.Kind)
		clauses = append(clauses, fmt.Sprintf("kind=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.VisitFrom != nil {
		args = append(args, *filter.VisitFrom)
		clauses = append(clauses, fmt.Sprintf("assigned_visit_at >= $%d", len(args)))
	}
	if filter.VisitTo != nil {
		args = append(args, *filter.VisitTo)
		clauses = append(clauses, fmt.Sprintf("assigned_visit_at <= $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM entries WHERE %s ORDER BY created_at DESC`,
		entryColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}
	return query, args
}

func insertNote(ctx context.Context, db dbtx, entryID string, note *domain.TimelineEntry) error {
	const query = `
        INSERT INTO entry_timeline (entry_id, note, added_by, author_id, author_role, added_at, images, quote, seen_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	quote, err := encodeQuote(note)
	if err != nil {
		return err
	}
	images := note.Images
	if images == nil {
		images = []string{}
	}
	seenBy := note.SeenBy
	if seenBy == nil {
		seenBy = []string{}
	}
	_, err = db.Exec(ctx, query,
		entryID,
		note.Note,
		note.AddedBy,
		note.AuthorID,
		note.AuthorRole,
		note.AddedAt,
		images,
		quote,
		seenBy,
	)
	return err
}

func (r *entryRepository) loadTimelines(ctx context.Context, entryIDs []string) (map[string][]domain.TimelineEntry, error) {
	const query = `
        SELECT entry_id::text, note, added_by, author_id, author_role, added_at, images, quote, seen_by
        FROM entry_timeline WHERE entry_id::text = ANY($1) ORDER BY entry_id, id ASC`
	rows, err := r.pool.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.TimelineEntry, len(entryIDs))
	for _, id := range entryIDs {
		result[id] = []domain.TimelineEntry{}
	}
	for rows.Next() {
		var (
			entryID string
			note    domain.TimelineEntry
			quote   []byte
		)
		if err := rows.Scan(
			&entryID,
			&note.Note,
			&note.AddedBy,
			&note.AuthorID,
			&note.AuthorRole,
			&note.AddedAt,
			&note.Images,
			&quote,
			&note.SeenBy,
		); err != nil {
			return nil, err
		}
		if err := decodeQuote(quote, &note); err != nil {
			return nil, err
		}
		result[entryID] = append(result[entryID], note)
	}
	return result, rows.Err()
}

func encodeQuote(note *domain.TimelineEntry) ([]byte, error) {
	if len(note.PriceList) == 0 || note.TotalPrice == nil {
		return nil, nil
	}
	return json.Marshal(quoteDocument{Items: note.PriceList, Total: *note.TotalPrice})
}

func decodeQuote(raw []byte, note *domain.TimelineEntry) error {
	if len(raw) == 0 {
		return nil
	}
	var doc quoteDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode quote: %w", err)
	}
	note.PriceList = doc.Items
	total := doc.Total
	note.TotalPrice = &total
	return nil
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var entry domain.Entry
	if err := row.Scan(
		&entry.ID,
		&entry.Kind,
		&entry.PublicID,
		&entry.OwnerID,
		&entry.Title,
		&entry.Description,
		&entry.Category,
		&entry.Status,
		&entry.PreferredVisitAt,
		&entry.AssignedVisitAt,
		&entry.CompletedAt,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &entry, nil
}
