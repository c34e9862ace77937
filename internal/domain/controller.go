package domain

import "fmt"

// NumCircuits is how many switchable outputs a controller exposes.
const NumCircuits = 4

// Controller is a server-tracked device registration. The backend addresses
// it by numeric ID for detail fetches and by the ControllerID string for
// list display; both come from the server and are never minted locally.
type Controller struct {
	ID               int    `json:"id"`
	ControllerID     string `json:"controllerId"`
	OwnerEmail       string `json:"ownerEmail"`
	ControllerName   string `json:"controllerName"`
	CircuitEndpoint1 string `json:"circuitEndPoint_1"`
	CircuitEndpoint2 string `json:"circuitEndPoint_2"`
	CircuitEndpoint3 string `json:"circuitEndPoint_3"`
	CircuitEndpoint4 string `json:"circuitEndPoint_4"`
	IsActivated      bool   `json:"isActivated"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

// CircuitEndpoint returns the control endpoint for circuit 1..4, or an
// error when the circuit number is out of range or the controller record
// carries no endpoint for it.
func (c *Controller) CircuitEndpoint(circuit int) (string, error) {
	endpoints := [NumCircuits]string{
		c.CircuitEndpoint1,
		c.CircuitEndpoint2,
		c.CircuitEndpoint3,
		c.CircuitEndpoint4,
	}
	if circuit < 1 || circuit > NumCircuits {
		return "", fmt.Errorf("circuit %d out of range 1..%d", circuit, NumCircuits)
	}
	ep := endpoints[circuit-1]
	if ep == "" {
		return "", fmt.Errorf("controller %q has no endpoint for circuit %d", c.ControllerID, circuit)
	}
	return ep, nil
}
