package raw

import "testing"

func TestGet(t *testing.T) {
	c := New().Prefix("LOG_")
	if got := c.Get("LEVEL", "debug"); got != "debug" {
		t.Fatalf("Get default = %q", got)
	}
	t.Setenv("LOG_LEVEL", " info ")
	if got := c.Get("LEVEL", "debug"); got != "info" {
		t.Fatalf("Get = %q, want trimmed value", got)
	}
}

func TestGetBool(t *testing.T) {
	c := New().Prefix("LOG_")
	if c.GetBool("CALLER", false) {
		t.Fatalf("GetBool default should be false")
	}
	t.Setenv("LOG_CALLER", "yes")
	if !c.GetBool("CALLER", false) {
		t.Fatalf("GetBool(yes) should be true")
	}
	t.Setenv("LOG_CALLER", "0")
	if c.GetBool("CALLER", true) {
		t.Fatalf("GetBool(0) should be false")
	}
}

func TestGetInt(t *testing.T) {
	c := New().Prefix("N_")
	if got := c.GetInt("ABSENT", 7); got != 7 {
		t.Fatalf("GetInt default = %d", got)
	}
	t.Setenv("N_WORKERS", "3")
	if got := c.GetInt("WORKERS", 7); got != 3 {
		t.Fatalf("GetInt = %d", got)
	}
	t.Setenv("N_WORKERS", "many")
	if got := c.GetInt("WORKERS", 7); got != 7 {
		t.Fatalf("GetInt invalid = %d, want default", got)
	}
}
