package wordinfo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wortschatz/internal/logger"
)

const verbPage = `<!DOCTYPE html><html><body>
<div class="rCntr rClear">gehen</div>
<section class="rBox rBoxWht">
<p class="rInf"><span>A1</span><span>verb</span></p>
<dd lang="en"><span>EN</span><span>to go</span></dd>
<ul class="rLst rLstGt">
<li>Ich gehe nach Hause.` + " " + `I am going home.</li>
</ul>
</section>
</body></html>`

const nounPage = `<!DOCTYPE html><html><body>
<div class="rCntr rClear">M&#228;dchen,
das</div>
<section class="rBox rBoxWht">
<p class="rInf"><span>A1</span><span>nomen</span></p>
<dd lang="en"><span>EN</span><span>girl</span></dd>
</section>
</body></html>`

const redirectPage = `<!DOCTYPE html><html><body>
<a class="rKnpf rNoSelect rKnUnt rKnObn" href="/verben/gehen.htm">gehen</a>
</body></html>`

const emptyPage = `<!DOCTYPE html><html><body><p>Keine Treffer</p></body></html>`

const searchPage = `<!DOCTYPE html><html><body><ul>
<li><a href="/nomen/haus.htm">Haus</a> <span>A1</span> <span>nomen</span></li>
<li><a href="/verben/hausen.htm">hausen</a> <span>C1</span> <span>verb</span></li>
</ul></body></html>`

func newTestClient(t *testing.T) (*Client, *http.ServeMux) {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return New(server.URL, logger.NewNop()), mux
}

func TestLookup(t *testing.T) {
	client, mux := newTestClient(t)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("w") == "gehen" {
			w.Write([]byte(verbPage))
			return
		}
		w.Write([]byte(emptyPage))
	})

	info, err := client.Lookup(context.Background(), "gehen")
	require.NoError(t, err)
	assert.Equal(t, "gehen", info.Word)
	assert.Equal(t, "A1", info.Level)
	assert.Equal(t, "Verb", info.WordType)
	assert.Equal(t, "to go", info.Translation)
	require.Len(t, info.Examples, 1)
	assert.Equal(t, "Ich gehe nach Hause.", info.Examples[0].Example)
	assert.Equal(t, "I am going home.", info.Examples[0].Translation)
}

func TestLookupJoinsArticle(t *testing.T) {
	client, mux := newTestClient(t)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(nounPage))
	})

	info, err := client.Lookup(context.Background(), "Mädchen")
	require.NoError(t, err)
	assert.Equal(t, "das Mädchen", info.Word)
	assert.Equal(t, "Nomen", info.WordType)
	assert.Equal(t, "girl", info.Translation)
}

func TestLookupFollowsRedirect(t *testing.T) {
	client, mux := newTestClient(t)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(redirectPage))
	})
	mux.HandleFunc("/verben/gehen.htm", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(verbPage))
	})

	info, err := client.Lookup(context.Background(), "ging")
	require.NoError(t, err)
	assert.Equal(t, "gehen", info.Word)
}

func TestLookupWordNotFound(t *testing.T) {
	client, mux := newTestClient(t)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(emptyPage))
	})

	_, err := client.Lookup(context.Background(), "xyzzy")
	assert.ErrorIs(t, err, ErrWordNotFound)
}

func TestLookupUnavailable(t *testing.T) {
	client, mux := newTestClient(t)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusInternalServerError)
	})

	_, err := client.Lookup(context.Background(), "gehen")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSearch(t *testing.T) {
	client, mux := newTestClient(t)
	mux.HandleFunc("/search/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchPage))
	})

	all, err := client.Search(context.Background(), "haus", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	nouns, err := client.Search(context.Background(), "haus", "Nomen")
	require.NoError(t, err)
	require.Len(t, nouns, 1)
	assert.Equal(t, "Haus", nouns[0].Word)
}

func TestSuggestByPrefix(t *testing.T) {
	client, mux := newTestClient(t)
	mux.HandleFunc("/worte/ha/1/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchPage))
	})
	mux.HandleFunc("/worte/ha/2/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	suggestions, err := client.SuggestByPrefix(context.Background(), "ha", 1, 3)
	require.NoError(t, err)
	assert.Len(t, suggestions, 2)
}
