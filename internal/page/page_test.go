package page

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLocationResolve(t *testing.T) {
	cases := []struct {
		from, ref, want string
	}{
		{"/blog.html", "blog.html?article=korea", "/blog.html?article=korea"},
		{"/codent-site/blog.html", "blog.html?article=korea", "/codent-site/blog.html?article=korea"},
		{"/", "blog.html", "/blog.html"},
		{"/blog.html?article=a", "?article=b", "/blog.html?article=b"},
		{"/a/b.html", "/blog.html", "/blog.html"},
	}
	for _, tc := range cases {
		got := ParseLocation(tc.from).Resolve(tc.ref).String()
		if got != tc.want {
			t.Fatalf("resolve %q from %q: expected %q, got %q", tc.ref, tc.from, tc.want, got)
		}
	}
}

func TestLocationParam(t *testing.T) {
	loc := ParseLocation("/blog.html?article=korea")
	require.Equal(t, "korea", loc.Param("article"))
	require.Equal(t, "", Location{Path: "/"}.Param("article"))
	require.Equal(t, "/", ParseLocation("").Path)
}

func TestHistoryPushAndPop(t *testing.T) {
	w := NewWindow(nil, ParseLocation("/blog.html"), nil)
	var popped []string
	w.History.OnPopState(func(e Entry) { popped = append(popped, e.State["articleId"]) })

	w.History.PushState(map[string]string{"articleId": "a"}, "blog.html?article=a")
	w.History.PushState(map[string]string{"articleId": "b"}, "blog.html?article=b")
	require.Equal(t, "b", w.Location().Param("article"))
	require.Equal(t, 3, w.History.Len())
	require.Empty(t, popped, "pushState must not fire popstate")

	require.True(t, w.History.Back())
	require.Equal(t, "a", w.Location().Param("article"))
	require.True(t, w.History.Back())
	require.Equal(t, "", w.Location().Param("article"))
	require.False(t, w.History.Back())
	require.True(t, w.History.Forward())

	if diff := cmp.Diff([]string{"a", "", "a"}, popped); diff != "" {
		t.Fatalf("popstate states mismatch (-want +got):\n%s", diff)
	}

	w.History.PushState(nil, "blog.html")
	require.Equal(t, 3, w.History.Len(), "push drops forward entries")
	require.False(t, w.History.Forward())
	require.Equal(t, 1, w.Loads)
}

func TestPushStateCopiesState(t *testing.T) {
	w := NewWindow(nil, ParseLocation("/"), nil)
	st := map[string]string{"articleId": "a"}
	w.History.PushState(st, "?x=1")
	st["articleId"] = "mutated"
	require.Equal(t, "a", w.History.Current().State["articleId"])
}

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()
	_, ok := s.Get("k")
	require.False(t, ok)
	s.Set("k", "true")
	v, ok := s.Get("k")
	require.True(t, ok)
	require.Equal(t, "true", v)
	s.Delete("k")
	_, ok = s.Get("k")
	require.False(t, ok)
}

func TestTimersAdvance(t *testing.T) {
	l := NewTimers()
	var ran []string
	l.AfterFunc(300*time.Millisecond, func() { ran = append(ran, "b") })
	l.AfterFunc(100*time.Millisecond, func() {
		ran = append(ran, "a")
		l.AfterFunc(100*time.Millisecond, func() { ran = append(ran, "nested") })
	})
	stopped := l.AfterFunc(200*time.Millisecond, func() { ran = append(ran, "stopped") })
	require.True(t, stopped.Stop())
	require.False(t, stopped.Stop())

	l.Advance(150 * time.Millisecond)
	require.Equal(t, []string{"a"}, ran)
	require.Equal(t, 2, l.Pending())

	l.Advance(150 * time.Millisecond)
	require.Equal(t, []string{"a", "nested", "b"}, ran)
	require.Equal(t, 0, l.Pending())
	require.Equal(t, 300*time.Millisecond, l.Elapsed())
}

func TestTimersStopAfterRun(t *testing.T) {
	l := NewTimers()
	tm := l.AfterFunc(time.Millisecond, func() {})
	l.Drain()
	require.False(t, tm.Stop())
}

func TestTimersDrain(t *testing.T) {
	l := NewTimers()
	n := 0
	l.AfterFunc(time.Hour, func() { n++ })
	l.AfterFunc(time.Second, func() { n++ })
	l.Drain()
	require.Equal(t, 2, n)
	require.Equal(t, 0, l.Pending())
}
