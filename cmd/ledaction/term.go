package main

import (
	"fmt"
	"os"

	"github.com/karlmutch/errors"
)

var (
	msgV = os.Stdout
	errV = os.Stderr
)

// runTUI starts printing progress messages and driver failures
func runTUI(msgC <-chan string, errC <-chan errors.Error, quitC <-chan struct{}) {
	go msgWatch(msgC, errC, quitC)
}

func msgWatch(msgsC <-chan string, errorC <-chan errors.Error, quitC <-chan struct{}) {
	for {
		select {
		case msg := <-msgsC:
			if msgV != nil {
				fmt.Fprint(msgV, msg)
			}
		case err := <-errorC:
			if errV != nil {
				fmt.Fprintln(errV, err.Error())
			}
		case <-quitC:
			return
		}
	}
}
