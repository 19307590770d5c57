package form_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/WorldBank-Transport/DRIVER-Android-sub000/pkg/types"
)

func TestLabelsFor(t *testing.T) {
	f := newFixture(t)
	personType := f.schema.Type("driverPerson")

	bigBird := types.NewItem("driverPerson")
	bigBird.Set("name", types.Text("Big Bird"))
	bigBird.Set("address", types.Text("Sesame Street"))

	empty := types.NewItem("driverPerson")
	empty.Set("name", types.Text(""))

	onlyAddress := types.NewItem("driverPerson")
	onlyAddress.Set("address", types.Text("123 Main"))
	onlyAddress.Set("factors", types.NewChoiceSet("Alcohol suspected"))

	labels, images := f.labeler.LabelsFor([]*types.Item{bigBird, empty, onlyAddress}, personType, "Person")

	assert.Equal(t, []string{"Big Bird - Sesame Street", "Person - 2", "123 Main"}, labels)
	assert.Nil(t, images, "person has no image field")
}

func TestLabelsForWithImages(t *testing.T) {
	f := newFixture(t)
	vehicleType := f.schema.Type("driverVehicle")

	car := types.NewItem("driverVehicle")
	car.Set("plateNumber", types.Text("ABC 123"))
	car.Set("picture", types.Image("/data/images/car.jpg"))
	car.Set("make", types.Text("Toyota"))

	bare := types.NewItem("driverVehicle")

	labels, images := f.labeler.LabelsFor([]*types.Item{car, bare}, vehicleType, "Vehicle")

	assert.Equal(t, []string{"ABC 123 - Toyota", "Vehicle - 2"}, labels)
	assert.Equal(t, []string{"/data/images/car.jpg", ""}, images)
}

func TestLabelsForEmptyAndUnknownType(t *testing.T) {
	f := newFixture(t)

	labels, images := f.labeler.LabelsFor(nil, f.schema.Type("driverPhoto"), "Photo")
	assert.Empty(t, labels)
	assert.NotNil(t, images)
	assert.Empty(t, images)

	labels, images = f.labeler.LabelsFor([]*types.Item{types.NewItem("x")}, nil, "Item")
	assert.Equal(t, []string{"Item - 1"}, labels)
	assert.Nil(t, images)
}
