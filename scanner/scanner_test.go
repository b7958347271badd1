package scanner

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/seclens/seclens/boundary"
)

const mainTS = `import { getUser } from './service'

export function main() {
  return getUser(1)
}
`

const serviceTS = `import { PrismaClient } from '@prisma/client'

const prisma = new PrismaClient()

export function getUser(id: number) {
  return prisma.user.findUnique({ select: { ssn: true } })
}
`

const entitiesTS = `import { Entity, Column } from 'typeorm'

@Entity()
export class User {
  @Column()
  name: string;

  // sensitive: restricted
  @Column()
  ssn: string;
}
`

func uploadProject(t *testing.T, fs afs.Service, base string) {
	t.Helper()
	ctx := context.Background()
	for name, src := range map[string]string{
		"src/main.ts":     mainTS,
		"src/service.ts":  serviceTS,
		"src/entities.ts": entitiesTS,
	} {
		require.NoError(t, fs.Upload(ctx, base+"/"+name, 0644, strings.NewReader(src)))
	}
}

func quietScanner(config Config, fs afs.Service) *Scanner {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(config, WithFileSystem(fs), WithLogger(logger))
}

func TestScanner_Scan(t *testing.T) {
	fs := afs.New()
	base := "mem://localhost/scan/basic"
	uploadProject(t, fs, base)

	config := DefaultConfig()
	config.Rules = []boundary.Rule{{
		ID:          "no-restricted-in-src",
		Tier:        "restricted",
		FromPattern: `src/`,
		Severity:    "critical",
	}}

	result, err := quietScanner(config, fs).Scan(context.Background(), base)
	require.NoError(t, err)

	require.Len(t, result.Files, 3)
	assert.True(t, strings.HasSuffix(result.Files[0].Path, "entities.ts"))

	// main is an entry point by name and reaches getUser through the import
	require.NotEmpty(t, result.EntryPoints)
	entry := result.Graph.Node(result.EntryPoints[0])
	require.NotNil(t, entry)
	assert.Equal(t, "main", entry.Name)
	assert.True(t, entry.IsEntryPoint)

	tier, provenance := result.Boundary.Map.FieldTier("User", "ssn")
	assert.Equal(t, boundary.TierRestricted, tier)
	assert.Equal(t, boundary.ProvenanceDeclared, provenance)

	require.NotEmpty(t, result.Prioritized)
	top := result.Prioritized[0]
	assert.Equal(t, "User", top.Table)
	assert.Equal(t, "ssn", top.Field)
	assert.True(t, top.Reachable)
	assert.Equal(t, 1, top.Distance)
	assert.Equal(t, boundary.TierRestricted, top.Tier)
	assert.Greater(t, top.Risk, 5.0)

	require.NotEmpty(t, result.Boundary.Violations)
	assert.Equal(t, "no-restricted-in-src", result.Boundary.Violations[0].RuleID)

	assert.Equal(t, len(result.Prioritized), result.Summary.Total)
}

func TestScanner_Deterministic(t *testing.T) {
	fs := afs.New()
	base := "mem://localhost/scan/repeat"
	uploadProject(t, fs, base)
	s := quietScanner(DefaultConfig(), fs)

	first, err := s.Scan(context.Background(), base)
	require.NoError(t, err)
	second, err := s.Scan(context.Background(), base)
	require.NoError(t, err)

	assert.Equal(t, first.EntryPoints, second.EntryPoints)
	require.Equal(t, len(first.Prioritized), len(second.Prioritized))
	for i := range first.Prioritized {
		assert.Equal(t, first.Prioritized[i].Point, second.Prioritized[i].Point)
		assert.Equal(t, first.Prioritized[i].Risk, second.Prioritized[i].Risk)
	}
}

func TestScanner_Cancellation(t *testing.T) {
	fs := afs.New()
	base := "mem://localhost/scan/cancel"
	uploadProject(t, fs, base)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := quietScanner(DefaultConfig(), fs).Scan(ctx, base)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestProject_RescanFile(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	base := "mem://localhost/scan/rescan"
	uploadProject(t, fs, base)
	s := quietScanner(DefaultConfig(), fs)

	project, err := s.NewProject(ctx, base)
	require.NoError(t, err)

	before, err := project.Result(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, before.Boundary.Map.AccessPoints())

	// the data access disappears from the rewritten file
	serviceURL := base + "/src/service.ts"
	require.NoError(t, fs.Upload(ctx, serviceURL, 0644, strings.NewReader(
		"export function getUser(id: number) {\n  return null\n}\n")))
	require.NoError(t, project.RescanFile(ctx, serviceURL))

	after, err := project.Result(ctx)
	require.NoError(t, err)
	assert.Empty(t, after.Boundary.Map.AccessPoints())
	assert.Len(t, after.Files, 3)
}

func TestProject_RescanRemovedFile(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	base := "mem://localhost/scan/remove"
	uploadProject(t, fs, base)
	s := quietScanner(DefaultConfig(), fs)

	project, err := s.NewProject(ctx, base)
	require.NoError(t, err)

	entitiesURL := base + "/src/entities.ts"
	require.NoError(t, fs.Delete(ctx, entitiesURL))
	require.NoError(t, project.RescanFile(ctx, entitiesURL))

	result, err := project.Result(ctx)
	require.NoError(t, err)
	assert.Len(t, result.Files, 2)
	// without the declaration the field falls back to the default tier
	tier, provenance := result.Boundary.Map.FieldTier("User", "ssn")
	assert.NotEqual(t, boundary.ProvenanceDeclared, provenance)
	assert.NotEqual(t, boundary.TierRestricted, tier)
}
