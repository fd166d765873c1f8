package pesu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindCourse(t *testing.T) {
	courses := []Course{
		{Code: "UE20CS301", Title: "Data Structures and its Applications", ID: "20975"},
		{Code: "UE20CS302", Title: "Design and Analysis of Algorithms", ID: "20976"},
		{Code: "UE20CS303", Title: "Operating Systems", ID: "20978"},
	}

	cases := []struct {
		query    string
		expected string
		found    bool
	}{
		{query: "ue20cs302", expected: "UE20CS302", found: true},
		{query: "20978", expected: "UE20CS303", found: true},
		{query: "operating systems", expected: "UE20CS303", found: true},
		{query: "Algorithms", expected: "UE20CS302", found: true},
		{query: "Operating Sytems", expected: "UE20CS303", found: true},
		{query: "Quantum Chromodynamics", found: false},
		{query: "   ", found: false},
	}
	for _, c := range cases {
		course, ok := FindCourse(courses, c.query)
		require.Equal(t, c.found, ok, c.query)
		if c.found {
			require.Equal(t, c.expected, course.Code, c.query)
		}
	}

	_, ok := FindCourse(nil, "anything")
	require.False(t, ok)
}
