package apiclient

import "net/http"

func allowed() {
	_, _ = http.Get("http://localhost")
	_, _ = http.DefaultClient.Do(nil)
}
