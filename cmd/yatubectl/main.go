// Command yatubectl is the administration tool for a yatube deployment.
package main

func main() {
	Execute()
}
