package testhelpers

// SchemaVersion is the schema UUID used by SchemaJSON.
const SchemaVersion = "5a0b2c1e-7d3f-4e8a-9b6c-0d1e2f3a4b5c"

// SchemaJSON is a trimmed accident record schema in the server's JSON Schema
// dialect. It has one singular section and three list sections.
const SchemaJSON = `{
  "type": "object",
  "title": "Incident",
  "properties": {
    "Incident Details": {"$ref": "#/definitions/driverIncidentDetails", "options": {"collapsed": true}, "propertyOrder": 0},
    "Person": {"$ref": "#/definitions/driverPerson", "options": {"collapsed": true}, "propertyOrder": 1},
    "Vehicle": {"$ref": "#/definitions/driverVehicle", "options": {"collapsed": true}, "propertyOrder": 2},
    "Photo": {"$ref": "#/definitions/driverPhoto", "options": {"collapsed": true}, "propertyOrder": 3}
  },
  "definitions": {
    "driverIncidentDetails": {
      "type": "object",
      "title": "Incident Details",
      "plural_title": "Incident Details",
      "multiple": false,
      "details": true,
      "required": ["_localId", "Severity"],
      "properties": {
        "_localId": {"type": "string", "format": "uuid", "options": {"hidden": true}},
        "Severity": {"type": "string", "fieldType": "selectlist", "displayType": "select", "enum": ["Fatal", "Injury", "Property damage"], "propertyOrder": 0},
        "Main cause": {"type": "string", "fieldType": "selectlist", "displayType": "select", "enum": ["Speeding", "Drunk driving", "Mechanical failure"], "propertyOrder": 1},
        "Description": {"type": "string", "fieldType": "text", "format": "textarea", "propertyOrder": 2}
      }
    },
    "driverPerson": {
      "type": "array",
      "title": "Person",
      "plural_title": "People",
      "multiple": true,
      "items": {
        "type": "object",
        "title": "Person",
        "required": ["_localId"],
        "properties": {
          "_localId": {"type": "string", "format": "uuid", "options": {"hidden": true}},
          "Name": {"type": "string", "fieldType": "text", "isRequired": true, "propertyOrder": 0},
          "Address": {"type": "string", "fieldType": "text", "propertyOrder": 1},
          "Vehicle": {"type": "string", "fieldType": "reference", "watch": {"target": "driverVehicle"}, "propertyOrder": 2},
          "Factors": {"type": "array", "fieldType": "selectlist", "displayType": "checkbox", "uniqueItems": true, "items": {"type": "string", "enum": ["Alcohol suspected", "Drugs suspected"]}, "propertyOrder": 3}
        }
      }
    },
    "driverVehicle": {
      "type": "array",
      "title": "Vehicle",
      "plural_title": "Vehicles",
      "multiple": true,
      "items": {
        "type": "object",
        "title": "Vehicle",
        "properties": {
          "_localId": {"type": "string", "format": "uuid", "options": {"hidden": true}},
          "Plate number": {"type": "string", "fieldType": "text", "propertyOrder": 0},
          "Picture": {"type": "string", "fieldType": "image", "media": {"binaryEncoding": "base64", "type": "image/jpeg"}, "propertyOrder": 1},
          "Make": {"type": "string", "fieldType": "text", "propertyOrder": 2},
          "Vehicle type": {"type": "string", "fieldType": "selectlist", "enum": ["Car", "Motorcycle", "Truck"], "propertyOrder": 3}
        }
      }
    },
    "driverPhoto": {
      "type": "array",
      "multiple": true,
      "items": {
        "type": "object",
        "properties": {
          "_localId": {"type": "string", "format": "uuid", "options": {"hidden": true}},
          "Picture": {"type": "string", "fieldType": "image", "propertyOrder": 0},
          "Description": {"type": "string", "fieldType": "text", "propertyOrder": 1}
        }
      }
    }
  }
}`
