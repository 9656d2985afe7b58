package service

import (
	"bufio"
	"bytes"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/sectionvault/internal/logging"
	"github.com/voyagen/sectionvault/internal/merge"
	"github.com/voyagen/sectionvault/internal/models"
)

func TestRecordLogsEachProblemOnceAtWarn(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { logging.Init(logging.Config{}) })

	rep := merge.Report{
		Mode:        merge.ModeLoad,
		Collisions:  []merge.Collision{{Kind: "group", Key: "Home", Strategy: merge.StrategyNameAuthor, Count: 2}},
		ShapeIssues: []models.ShapeIssue{{Path: "$[1]", Reason: "not an object"}},
	}
	record(models.CollectionHome, rep, time.Millisecond)

	levels := map[string][]string{}
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &entry))
		lvl, _ := entry["level"].(string)
		msg, _ := entry["message"].(string)
		levels[lvl] = append(levels[lvl], msg)
	}
	assert.Equal(t, []string{"identity collision", "skipped malformed tree entry"}, levels["warn"])
	assert.Equal(t, []string{"merge finished"}, levels["debug"])
}
