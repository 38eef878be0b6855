package i18n

import (
	"testing"
)

func TestT_ReturnsDefaultMessage(t *testing.T) {
	Init("en")
	got := T("common.loading", "Loading...")
	if got != "Loading..." {
		t.Errorf("T() = %q, want %q", got, "Loading...")
	}
}

func TestTn_Pluralization(t *testing.T) {
	Init("en")

	one := Tn("test.sessions", "{{.Count}} session", "{{.Count}} sessions", 1)
	if one != "1 session" {
		t.Errorf("Tn(1) = %q, want %q", one, "1 session")
	}

	many := Tn("test.sessions", "{{.Count}} session", "{{.Count}} sessions", 5)
	if many != "5 sessions" {
		t.Errorf("Tn(5) = %q, want %q", many, "5 sessions")
	}
}

func TestInit_FallbackToEnglish(t *testing.T) {
	Init("xx-nonexistent")
	got := T("common.loading", "Loading...")
	if got != "Loading..." {
		t.Errorf("expected English fallback, got %q", got)
	}
}

func TestKoreanLocale(t *testing.T) {
	Init("ko")
	defer Init("en")

	tests := []struct {
		id     string
		def    string
		wantKo string
	}{
		{"chat.empty", "No messages yet.", "메시지가 없습니다."},
		{"chat.loadingOlder", "Loading earlier messages...", "이전 메시지 로딩 중..."},
		{"chat.error.older", "Failed to load earlier messages.", "이전 메시지를 가져오는 데 실패했습니다."},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := T(tt.id, tt.def); got != tt.wantKo {
				t.Errorf("T(%q) = %q, want %q", tt.id, got, tt.wantKo)
			}
		})
	}

	if got := T("some.untranslated.key", "English fallback"); got != "English fallback" {
		t.Errorf("untranslated key = %q", got)
	}
}

func TestResolveLocale(t *testing.T) {
	tests := []struct {
		name       string
		env        string
		configLang string
		lang       string
		want       string
	}{
		{"env wins", "ko", "en", "en_US.UTF-8", "ko"},
		{"config next", "", "ko", "en_US.UTF-8", "ko"},
		{"posix normalized", "", "", "ko_KR.UTF-8", "ko-KR"},
		{"C locale ignored", "", "", "C", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STUDYROOM_LANG", tt.env)
			t.Setenv("LC_ALL", "")
			t.Setenv("LANG", tt.lang)
			if got := ResolveLocale(tt.configLang); got != tt.want {
				t.Errorf("ResolveLocale(%q) = %q, want %q", tt.configLang, got, tt.want)
			}
		})
	}
}
