package parser

import (
	"testing"

	"CareAlert/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	res, ok := Parse("HELP- Patient: John Doe - Nurses: 2 - PatientID: P123")
	require.True(t, ok)
	assert.Equal(t, "John Doe", res.PatientName)
	assert.Equal(t, 2, res.ActualNurseCount)
	assert.Equal(t, "P123", res.SelectedPatientID)
}

func TestParseCriticalMarker(t *testing.T) {
	res, ok := Parse("CRITICAL HELP- Patient: 王芳 - Nurses: 3 - PatientID: A77")
	require.True(t, ok)
	assert.Equal(t, "王芳", res.PatientName)
	assert.Equal(t, 3, res.ActualNurseCount)
	assert.Equal(t, "A77", res.SelectedPatientID)
}

func TestParseNoMatch(t *testing.T) {
	cases := []string{
		"not a valid alert string",
		"",
		"help- Patient: John - Nurses: 2 - PatientID: P1", // 关键字大小写敏感
		"HELP- Patient: John - Nurses: two - PatientID: P1",
		"HELP- Patient: John - Nurses: 2 - PatientID: ",
		"HELP- Patient: John - Nurses: 2 - PatientID: P1 extra",
	}
	for _, text := range cases {
		_, ok := Parse(text)
		assert.False(t, ok, "expected no match for %q", text)
	}
}

func TestPriorityFromText(t *testing.T) {
	assert.Equal(t, models.PriorityEmergency, PriorityFromText("CRITICAL HELP- Patient: A - Nurses: 1 - PatientID: P1"))
	assert.Equal(t, models.PriorityUrgent, PriorityFromText("HELP- Patient: A - Nurses: 1 - PatientID: P1"))
	assert.Equal(t, models.PriorityHelp, PriorityFromText("please come to room 3"))
}
