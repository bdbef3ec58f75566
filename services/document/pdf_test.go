package document

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkremaja/pkl/core/recap"
)

func TestWrapper_Wrap(t *testing.T) {
	w := NewWrapper()

	assert.Nil(t, w.Wrap("   ", 170))
	assert.Equal(t, []string{"Membuat laporan"}, w.Wrap("Membuat laporan", 170))

	long := strings.TrimSpace(strings.Repeat("instalasi jaringan ", 40))
	lines := w.Wrap(long, 170)
	require.Greater(t, len(lines), 1)
	assert.Equal(t, strings.Fields(long), strings.Fields(strings.Join(lines, " ")), "no word is lost")
	for _, line := range lines {
		assert.LessOrEqual(t, w.pdf.GetStringWidth(line), 170.0)
	}
}

func TestWrapper_Wrap_nonLatin(t *testing.T) {
	assert.Equal(t, []string{"kunjungan ? selesai"}, NewWrapper().Wrap("kunjungan ✅ selesai", 170))
}

func TestRender(t *testing.T) {
	blocks := make([]recap.Block, 0, 40)
	for i := 0; i < 40; i++ {
		blocks = append(blocks, recap.Block{Cells: []string{"1/2/2024", "Ani Wijaya", "0051237584", "XII RPL 1", "Hadir"}})
	}
	columns := []recap.Column{{Header: "Tanggal", X: 20}, {Header: "Nama", X: 50}, {Header: "NISN", X: 100}, {Header: "Kelas", X: 130}, {Header: "Status", X: 160}}
	doc := recap.Render("Rekap Absensi Harian", columns, blocks, recap.DefaultLayout(), NewWrapper())
	require.Len(t, doc.Pages, 2)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, doc))
	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, 2, bytes.Count(out, []byte("/Type /Page\n")))
}

func TestRender_noPages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, recap.Document{Title: "kosong"}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
