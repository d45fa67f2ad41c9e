package a

import (
	"net/http"
	"strings"
)

func bare() {
	_, _ = http.Get("http://localhost")                            // want "avoid http.Get, use the apiclient package"
	_, _ = http.Post("http://localhost", "text/plain", nil)        // want "avoid http.Post, use the apiclient package"
	_, _ = http.Head("http://localhost")                           // want "avoid http.Head, use the apiclient package"
	_, _ = http.PostForm("http://localhost", nil)                  // want "avoid http.PostForm, use the apiclient package"
	_, _ = http.DefaultClient.Do(nil)                              // want "avoid http.DefaultClient, use the apiclient package"
	_, _ = http.NewRequest(http.MethodGet, "http://localhost", nil) // ok
}

func configured() {
	client := &http.Client{}
	_, _ = client.Get("http://localhost")
	_, _ = client.Post("http://localhost", "text/plain", strings.NewReader(""))
}
