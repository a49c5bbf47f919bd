package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/kena741/zuluskills-admin/internal/storage"
)

func TestBuildSelect(t *testing.T) {
	m1, m2 := uuid.New(), uuid.New()
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	q := storage.Query{
		Table:   storage.TableLessons,
		Columns: []string{"id", "title"},
		Filters: []storage.Filter{
			storage.In("module_id", []string{m1.String(), "not-a-uuid", m2.String()}),
			storage.Gte("created_at", since),
		},
		Order: []storage.Order{storage.Asc("ordinal"), storage.Desc("created_at")},
		Limit: 10,
	}

	sql, args := buildSelect(q)

	assert.Equal(t,
		`SELECT json_build_object('id', t."id", 'title', t."title") FROM "lessons" AS t`+
			` WHERE t."module_id" = ANY($1::uuid[]) AND t."created_at" >= $2`+
			` ORDER BY t."ordinal" ASC, t."created_at" DESC LIMIT 10`,
		sql)
	assert.Equal(t, []any{[]uuid.UUID{m1, m2}, since}, args)
}

func TestBuildSelect_AllColumnsNoFilters(t *testing.T) {
	sql, args := buildSelect(storage.Query{Table: storage.TableCourses})

	assert.Equal(t, `SELECT to_json(t) FROM "courses" AS t`, sql)
	assert.Empty(t, args)
}

func TestBuildWhere_EqKinds(t *testing.T) {
	user := uuid.New()
	var args argList
	where := buildWhere([]storage.Filter{
		storage.Eq("user_id", user.String()),
		storage.Eq("completed", true),
		storage.Eq("completed_at", nil),
		storage.Eq("slug", "intro-to-go"),
	}, &args)

	assert.Equal(t, ` WHERE t."user_id" = $1::uuid AND t."completed" = $2 AND t."completed_at" IS NULL AND t."slug"::text = $3`, where)
	assert.Equal(t, argList{user, true, "intro-to-go"}, args)
}

func TestBuildWhere_NonUUIDKeyMatchesNothing(t *testing.T) {
	var args argList
	where := buildWhere([]storage.Filter{storage.Eq("id", "missing")}, &args)

	assert.Equal(t, ` WHERE FALSE`, where)
	assert.Empty(t, args)
}

func TestBuildInsert(t *testing.T) {
	values := storage.Values{"title": "Go", "slug": "go"}
	sql, args := buildInsert("courses", sortedColumns(values), values)

	assert.Equal(t, `INSERT INTO "courses" AS t ("slug", "title") VALUES ($1, $2) RETURNING to_json(t)`, sql)
	assert.Equal(t, []any{"go", "Go"}, args)
}

func TestBuildUpsert(t *testing.T) {
	values := storage.Values{"user_id": "u", "lesson_id": "l", "completed": true}
	cols := sortedColumns(values)

	t.Run("overwrite", func(t *testing.T) {
		sql, _ := buildUpsert("user_lesson_progress", cols, values, storage.Conflict{Columns: []string{"user_id", "lesson_id"}})
		assert.Equal(t,
			`INSERT INTO "user_lesson_progress" AS t ("completed", "lesson_id", "user_id") VALUES ($1, $2, $3)`+
				` ON CONFLICT ("user_id", "lesson_id") DO UPDATE SET "completed" = EXCLUDED."completed"`,
			sql)
	})

	t.Run("ignore duplicates", func(t *testing.T) {
		sql, _ := buildUpsert("user_lesson_progress", cols, values, storage.Conflict{
			Columns:          []string{"user_id", "lesson_id"},
			IgnoreDuplicates: true,
		})
		assert.Contains(t, sql, `ON CONFLICT ("user_id", "lesson_id") DO NOTHING`)
	})
}

func TestBuildUpdate(t *testing.T) {
	values := storage.Values{"title": "New", "updated_at": time.Unix(0, 0).UTC()}
	id := uuid.New()
	sql, args := buildUpdate("courses", sortedColumns(values), values, []storage.Filter{storage.Eq("id", id.String())})

	assert.Equal(t,
		`UPDATE "courses" AS t SET "title" = $1, "updated_at" = $2 WHERE t."id" = $3::uuid RETURNING to_json(t)`,
		sql)
	assert.Len(t, args, 3)
	assert.Equal(t, id, args[2])
}

func TestBuildCount(t *testing.T) {
	sql, args := buildCount("profiles", nil)
	assert.Equal(t, `SELECT count(*) FROM "profiles" AS t`, sql)
	assert.Empty(t, args)
}

func TestConnString(t *testing.T) {
	o := Options{User: "app", Password: "p@ss", Host: "db", Port: "5432", DBName: "learn", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/learn?sslmode=disable", o.ConnString("postgres"))
	assert.Equal(t, "pgx5://app:p%40ss@db:5432/learn?sslmode=disable", o.ConnString("pgx5"))
}
