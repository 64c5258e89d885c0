package status

// Counter holds the dashboard roll-up. Items in the UNDEFINED bucket are not
// counted anywhere.
type Counter struct {
	Success int `json:"success"`
	Running int `json:"running"`
	Failed  int `json:"failed"`
}

// Tally adds one item with status s.
func (c *Counter) Tally(s Status) {
	switch General(s) {
	case GeneralSuccess:
		c.Success++
	case GeneralRunning:
		c.Running++
	case GeneralError:
		c.Failed++
	}
}

// Add merges o into c.
func (c *Counter) Add(o Counter) {
	c.Success += o.Success
	c.Running += o.Running
	c.Failed += o.Failed
}

// Total is the number of counted items.
func (c Counter) Total() int {
	return c.Success + c.Running + c.Failed
}
