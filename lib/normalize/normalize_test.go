// Copyright (C) 2025 The Geocoding Authors.

package normalize

import "testing"

func TestUniformIdempotent(t *testing.T) {
	cases := []string{
		"Ambérieu-en-Bugey",
		"Rue du Professeur Christian Cabrol",
		"  Saint-Étienne  ",
		"",
	}
	for _, c := range cases {
		once := Uniform(c)
		twice := Uniform(once)
		if once != twice {
			t.Errorf("Uniform(%q) = %q, Uniform(that) = %q, want idempotent", c, once, twice)
		}
	}
}

func TestUniformDiacritics(t *testing.T) {
	if got, want := Uniform("Ambérieu-en-Bugey"), "AMBERIEU EN BUGEY"; got != want {
		t.Errorf("Uniform() = %q, want %q", got, want)
	}
	if got, want := Uniform("amberieu en bugey"), "AMBERIEU EN BUGEY"; got != want {
		t.Errorf("Uniform() = %q, want %q", got, want)
	}
}

func TestUniformCommuneIdempotent(t *testing.T) {
	cases := []string{"Ambérieu-en-Bugey", "Saint-Étienne", "La Rochelle", "Saint"}
	for _, c := range cases {
		once := UniformCommune(c)
		twice := UniformCommune(once)
		if once != twice {
			t.Errorf("UniformCommune(%q) = %q, UniformCommune(that) = %q, want idempotent", c, once, twice)
		}
	}
}

func TestUniformCommuneDropsStopwords(t *testing.T) {
	if got, want := UniformCommune("Ambérieu-en-Bugey"), "AMBERIEU BUGEY"; got != want {
		t.Errorf("UniformCommune() = %q, want %q", got, want)
	}
}

func TestUniformCommuneAllStopwords(t *testing.T) {
	// A commune whose normalized name is only stopword tokens keeps the
	// Uniform() output unchanged instead of becoming empty.
	if got, want := UniformCommune("Saint"), "SAINT"; got != want {
		t.Errorf("UniformCommune() = %q, want %q", got, want)
	}
}

func TestUniformAdresse(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Rue du Professeur Christian Cabrol", "R DU PROFESSEUR CHRISTIAN CABROL"},
		{"630, la Chèvre", "LA CHEVRE"},
		{"Avenue Victor Hugo bis", "AV VICTOR HUGO B"},
	}
	for _, c := range cases {
		if got := UniformAdresse(c.in); got != c.want {
			t.Errorf("UniformAdresse(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDisplay(t *testing.T) {
	if got, want := Display("Ambérieu-en-Bugey"), "AMBERIEU EN BUGEY"; got != want {
		t.Errorf("Display() = %q, want %q", got, want)
	}
}
