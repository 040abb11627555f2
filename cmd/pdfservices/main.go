// Command pdfservices runs PDF Services operations on local files and writes
// the results to the output directory.
package main

import "github.com/Lllllllleong/pdfservicesflow/cmd/pdfservices/commands"

func main() {
	commands.Execute()
}
