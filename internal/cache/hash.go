package cache

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/mcoot/rewardroster/internal/model"
)

// ContentHash fingerprints the (players, items, ui) triple
func ContentHash(players []model.Player, items []string, ui model.UIFlags) uint64 {
	d := xxhash.New()
	for _, p := range players {
		writeField(d, p.Name)
		writeField(d, strconv.FormatBool(p.Active))
		writeField(d, SerializeCounts(p.Counts))
	}
	writeField(d, "#items")
	for _, item := range items {
		writeField(d, item)
	}
	writeField(d, "#ui")
	writeField(d, strconv.FormatBool(ui.EditUnlocked))
	writeField(d, ui.SearchQuery)
	return d.Sum64()
}

// SnapshotHash fingerprints the shared part of a snapshot, history included
func SnapshotHash(s *model.Snapshot) uint64 {
	d := xxhash.New()
	writeField(d, strconv.FormatUint(ContentHash(s.Players, s.Items, model.UIFlags{}), 16))
	for _, h := range s.History {
		writeField(d, h.ID)
		writeField(d, h.Player)
		writeField(d, h.Item)
		writeField(d, strconv.Itoa(h.Quantity))
		writeField(d, string(h.Action))
		writeField(d, h.Timestamp.UTC().Format("2006-01-02T15:04:05.999999999"))
	}
	return d.Sum64()
}

func writeField(d *xxhash.Digest, s string) {
	_, _ = d.WriteString(s)
	_, _ = d.Write([]byte{0})
}
