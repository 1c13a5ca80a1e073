package legend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plan-tracer/internal/entity"
)

func TestGroupForFirstMatchWins(t *testing.T) {
	m := New([]Entry{
		{Layer: "E_Steckdosen", Name: "CEE", Group: "CEE-Steckdose 32A"},
		{Layer: "E_Steckdosen", Name: "", Group: "Steckdose allgemein"},
		{Layer: "E_Steckdosen", Name: "cee", Group: "never reached"},
	})

	e := &entity.Entity{Name: "SD_CEE_32", Layer: "E_Steckdosen"}
	assert.Equal(t, "CEE-Steckdose 32A", m.GroupFor(e))
}

func TestGroupForMatchesCaseInsensitiveSubstring(t *testing.T) {
	m := New([]Entry{
		{Layer: "E_Leuchten", Name: "wandleuchte", Group: "Wandleuchte"},
	})

	assert.Equal(t, "Wandleuchte",
		m.GroupFor(&entity.Entity{Name: "BL_Wandleuchte_2", Layer: "E_Leuchten"}))

	// Wrong layer never matches, even with the right name.
	assert.Equal(t, "BL",
		m.GroupFor(&entity.Entity{Name: "BL_Wandleuchte_2", Layer: "E_Dosen"}))
}

func TestGroupForFallsBackToDefault(t *testing.T) {
	m := New(nil)
	assert.Equal(t, "SD", m.GroupFor(&entity.Entity{Name: "SD_CEE_32", Layer: "X"}))

	var nilMapping *Mapping
	assert.Equal(t, "SD", nilMapping.GroupFor(&entity.Entity{Name: "SD_CEE_32"}))
}

func TestDefaultGroup(t *testing.T) {
	assert.Equal(t, "SD", DefaultGroup("SD_CEE_32"))
	assert.Equal(t, "LAMP", DefaultGroup("plan$0$LAMP_07"))
	assert.Equal(t, "TXT", DefaultGroup("TXT"))
	assert.Equal(t, "", DefaultGroup(""))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legend.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"layer,name,legend_info\n"+
			"\n"+
			"E_Steckdosen,CEE,CEE-Steckdose 16A, 5-polig\n"+
			"E_Leuchten,LAMP,Deckenleuchte\n"), 0o644))

	m, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, m.entries, 2)
	// Commas inside the group wording survive.
	assert.Equal(t, "CEE-Steckdose 16A, 5-polig", m.entries[0].Group)

	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("only,two\n"), 0o644))
	_, err = LoadFile(bad)
	assert.Error(t, err)
}
