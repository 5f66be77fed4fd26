package markov

import "github.com/golang/glog"

// Fatal logs the error and exits when err is not nil.
func Fatal(err error) {
	if err != nil {
		glog.Fatal(err)
	}
}
