package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean_RemovesControlCharacters(t *testing.T) {
	assert.Equal(t, "Holamundo", Clean("Hola\x00\x01mundo"))
	assert.Equal(t, "Holamundoconcaracteresraros", Clean("Hola\x00\x01mundo\x02con\x03caracteres\x04raros"))
}

func TestClean_PreservesExtendedLatin(t *testing.T) {
	in := "Resolución Directorial Nº 123 – señora Peña"
	out := Clean(in)
	assert.Contains(t, out, "Resolución")
	assert.Contains(t, out, "señora Peña")
}

func TestClean_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "uno dos tres", Clean("uno   dos\t\ttres"))
}

func TestClean_CollapsesBlankLinesAndTrims(t *testing.T) {
	in := "  primera línea  \n\n\n\n  segunda línea\t\n\n tercera "
	want := "primera línea\nsegunda línea\ntercera"
	assert.Equal(t, want, Clean(in))
}

func TestClean_EmptyInput(t *testing.T) {
	assert.Equal(t, "", Clean(""))
	assert.Equal(t, "", Clean("  \n \t \n "))
	assert.Equal(t, "", Clean("\x00\x01\x02"))
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"Hola\x00 mundo\n\n\n  con  espacios ",
		"Oficio Nº 045-2024\n\nAsunto:  Invitación",
		strings.Repeat("línea con texto\n\n", 40),
		"",
	}
	for _, in := range inputs {
		once := Clean(in)
		assert.Equal(t, once, Clean(once))
	}
}
