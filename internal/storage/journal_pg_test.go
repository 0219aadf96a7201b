/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestDialectRebind(t *testing.T) {
	q := `SELECT a FROM t WHERE x=? AND y IN (?, ?)`
	if got := sqliteDialect.q(q); got != q {
		t.Fatalf("sqlite query rewritten: %s", got)
	}
	if got := postgresDialect.q(q); got != `SELECT a FROM t WHERE x=$1 AND y IN ($2, $3)` {
		t.Fatalf("postgres rebind = %s", got)
	}
}

func TestIsPostgresURL(t *testing.T) {
	for in, want := range map[string]bool{
		"postgres://u:p@localhost/db":   true,
		" postgresql://localhost/cards": true,
		"/var/cache/journal.sqlite":     false,
		"file:journal.sqlite":           false,
	} {
		if got := IsPostgresURL(in); got != want {
			t.Fatalf("IsPostgresURL(%q) = %v", in, got)
		}
	}
}

// Runs against a live server when UCE_TEST_PG_DSN is set.
func TestPostgresJournal(t *testing.T) {
	dsn := os.Getenv("UCE_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("UCE_TEST_PG_DSN not set")
	}
	j, err := OpenJournal(dsn)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	defer j.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := j.db.ExecContext(ctx, `DELETE FROM exports`); err != nil {
		t.Fatalf("reset: %v", err)
	}

	e, err := j.Record(ctx, Entry{WidthMM: 101.6, HeightMM: 50.8, DPI: 300, Bytes: 1 << 33})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, err := j.Get(ctx, e.ID)
	if err != nil || got.WidthMM != 101.6 || got.Bytes != 1<<33 {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if _, err := j.Record(ctx, Entry{Status: StatusError, Error: "bad"}); err != nil {
		t.Fatalf("Record failure: %v", err)
	}
	st, err := j.Stats(ctx)
	if err != nil || st.Total != 2 || st.Failed != 1 {
		t.Fatalf("Stats = %+v, %v", st, err)
	}
	if n, err := j.Prune(ctx, 1); err != nil || n != 1 {
		t.Fatalf("Prune = %d, %v", n, err)
	}
}
