// Command messctl administers a messmate database from the terminal.
package main

func main() {
	Execute()
}
