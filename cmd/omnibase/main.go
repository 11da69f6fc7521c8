// Command omnibase validates, visualizes, runs and serves state machine contracts.
package main

func main() {
	Execute()
}
