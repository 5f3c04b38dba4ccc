// ABOUTME: Tests for the .env loader that reads KEY=VALUE pairs into the process environment.
// ABOUTME: Covers plain and quoted values, comments, export prefixes and no-clobber behavior.
package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// unset clears key for the test and restores it afterwards.
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoadDotEnvSetsVariables(t *testing.T) {
	path := writeTempEnv(t, "# settings\n\nIMAGINE_TEST_A=hello\nexport IMAGINE_TEST_B=\"quoted value\"\nIMAGINE_TEST_C='single'\nnot a pair\n")
	unset(t, "IMAGINE_TEST_A")
	unset(t, "IMAGINE_TEST_B")
	unset(t, "IMAGINE_TEST_C")

	loadDotEnv(path)

	cases := map[string]string{
		"IMAGINE_TEST_A": "hello",
		"IMAGINE_TEST_B": "quoted value",
		"IMAGINE_TEST_C": "single",
	}
	for key, want := range cases {
		if got := os.Getenv(key); got != want {
			t.Errorf("expected %s=%q, got %q", key, want, got)
		}
	}
}

func TestLoadDotEnvDoesNotClobber(t *testing.T) {
	path := writeTempEnv(t, "IMAGINE_TEST_KEEP=fromfile\n")
	t.Setenv("IMAGINE_TEST_KEEP", "fromenv")

	loadDotEnv(path)

	if got := os.Getenv("IMAGINE_TEST_KEEP"); got != "fromenv" {
		t.Errorf("expected existing value to win, got %q", got)
	}
}

func TestLoadDotEnvValueWithEquals(t *testing.T) {
	path := writeTempEnv(t, "IMAGINE_TEST_EQ=a=b\n")
	unset(t, "IMAGINE_TEST_EQ")

	loadDotEnv(path)

	if got := os.Getenv("IMAGINE_TEST_EQ"); got != "a=b" {
		t.Errorf("expected a=b, got %q", got)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	loadDotEnv(filepath.Join(t.TempDir(), "absent"))
}
