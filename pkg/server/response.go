/*
Copyright 2024 The Zimg Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package server

import (
	"fmt"
	"net/http"
)

// serverName goes out in the Server header of every shaped response.
const serverName = "zimg/3.0 (go)"

// Scripts in the wild scrape some of these bodies (notably the upload
// MD5 line); the wording is load-bearing.
const (
	welcomeHTML = "<html>\n<body>\n<h1>\nWelcome To zimg World!</h1>\n</body>\n</html>\n"

	forbiddenHTML    = "<html><body><h1>403 Forbidden!</h1></body></html>"
	notFoundHTML     = "<html><body><h1>404 Not Found!</h1></body></html>"
	uploadFailedHTML = "<html><body><h1>Upload Failed!</h1></body></html>"
	internalErrHTML  = "<html><body><h1>500 Internal Error!</h1></body></html>"

	loveHTML = "<html>\n <head>\n" +
		"  <title>Love is Eternal</title>\n" +
		" </head>\n" +
		" <body>\n" +
		"  <h1>Single1024</h1>\n" +
		"Since 2008-12-22, there left no room in my heart for another one.</br>\n" +
		"</body>\n</html>\n"
)

func uploadOKHTML(md5 string, port int) string {
	return fmt.Sprintf("<html>\n<head>\n"+
		"<title>Upload Successfully</title>\n"+
		"</head>\n"+
		"<body>\n"+
		"<h1>MD5: %s</h1>\n"+
		"Image upload successfully! You can get this image via this address:<br/><br/>\n"+
		"http://yourhostname:%d/%s?w=width&h=height&p=proportion&g=isgray\n"+
		"</body>\n</html>\n",
		md5, port, md5)
}

func adminOKHTML(md5 string, t int) string {
	return fmt.Sprintf("<html><body><h1>Admin Command Successful!</h1>"+
		"<br>MD5: %s</br>"+
		"<br>Command Type: %d</br>"+
		"</body></html>", md5, t)
}

func adminNotFoundHTML(md5 string, t int) string {
	return fmt.Sprintf("<html><body><h1>Admin Command Failed!</h1>"+
		"<br>MD5: %s</br>"+
		"<br>Command Type: %d</br>"+
		"<br>Image Not Found.</br>"+
		"</body></html>", md5, t)
}

func adminFailedHTML(md5 string, t int) string {
	return fmt.Sprintf("<html><body><h1>Admin Command Failed!</h1>"+
		"<br>MD5: %s</br>"+
		"<br>Command Type: %d</br>"+
		"<br>Command Failed.</br>"+
		"</body></html>", md5, t)
}

func (s *Server) writeHTML(w http.ResponseWriter, status int, body string) {
	h := w.Header()
	h.Set("Server", serverName)
	h.Set("Content-Type", "text/html")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

// addExtraHeaders appends the configured extra headers in parse order.
// Repeated keys accumulate; nothing is overwritten.
func (s *Server) addExtraHeaders(w http.ResponseWriter) {
	for _, hd := range s.conf.Headers {
		w.Header().Add(hd.Key, hd.Value)
	}
}
