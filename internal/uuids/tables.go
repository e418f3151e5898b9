package uuids

// entry is one assigned-numbers row, keyed by 16-bit short form in the
// table maps below.
type entry struct {
	name       string
	identifier string
}

// Subset of the Bluetooth SIG assigned numbers covering the services,
// characteristics and descriptors an environmental sensor deployment
// actually encounters. Anything missing resolves to a custom record,
// which downstream consumers treat the same as a vendor UUID.
//
// Source: Bluetooth Assigned Numbers, GATT Specification Supplement.

var services = map[string]entry{
	"1800": {"Generic Access", "org.bluetooth.service.generic_access"},
	"1801": {"Generic Attribute", "org.bluetooth.service.generic_attribute"},
	"180A": {"Device Information", "org.bluetooth.service.device_information"},
	"180F": {"Battery", "org.bluetooth.service.battery_service"},
	"1810": {"Blood Pressure", "org.bluetooth.service.blood_pressure"},
	"181A": {"Environmental Sensing", "org.bluetooth.service.environmental_sensing"},
	"181B": {"Body Composition", "org.bluetooth.service.body_composition"},
	"181C": {"User Data", "org.bluetooth.service.user_data"},
	"1826": {"Fitness Machine", "org.bluetooth.service.fitness_machine"},
}

var characteristics = map[string]entry{
	"2A00": {"Device Name", "org.bluetooth.characteristic.gap.device_name"},
	"2A01": {"Appearance", "org.bluetooth.characteristic.gap.appearance"},
	"2A05": {"Service Changed", "org.bluetooth.characteristic.gatt.service_changed"},
	"2A19": {"Battery Level", "org.bluetooth.characteristic.battery_level"},
	"2A24": {"Model Number String", "org.bluetooth.characteristic.model_number_string"},
	"2A25": {"Serial Number String", "org.bluetooth.characteristic.serial_number_string"},
	"2A26": {"Firmware Revision String", "org.bluetooth.characteristic.firmware_revision_string"},
	"2A29": {"Manufacturer Name String", "org.bluetooth.characteristic.manufacturer_name_string"},
	"2A6D": {"Pressure", "org.bluetooth.characteristic.pressure"},
	"2A6E": {"Temperature", "org.bluetooth.characteristic.temperature"},
	"2A6F": {"Humidity", "org.bluetooth.characteristic.humidity"},
	"2A70": {"True Wind Speed", "org.bluetooth.characteristic.true_wind_speed"},
	"2A71": {"True Wind Direction", "org.bluetooth.characteristic.true_wind_direction"},
	"2A76": {"UV Index", "org.bluetooth.characteristic.uv_index"},
	"2A77": {"Irradiance", "org.bluetooth.characteristic.irradiance"},
	"2A7A": {"Heat Index", "org.bluetooth.characteristic.heat_index"},
	"2A7B": {"Dew Point", "org.bluetooth.characteristic.dew_point"},
	"2AA3": {"Barometric Pressure Trend", "org.bluetooth.characteristic.barometric_pressure_trend"},
	"2B8C": {"CO2 Concentration", "org.bluetooth.characteristic.co2_concentration"},
	"2BCF": {"Ammonia Concentration", "org.bluetooth.characteristic.ammonia_concentration"},
	"2BD0": {"Carbon Monoxide Concentration", "org.bluetooth.characteristic.carbon_monoxide_concentration"},
	"2BD2": {"Nitrogen Dioxide Concentration", "org.bluetooth.characteristic.nitrogen_dioxide_concentration"},
	"2BD3": {"Non-Methane Volatile Organic Compounds Concentration", "org.bluetooth.characteristic.non_methane_volatile_organic_compounds_concentration"},
	"2BD4": {"Ozone Concentration", "org.bluetooth.characteristic.ozone_concentration"},
	"2BD5": {"Particulate Matter - PM1 Concentration", "org.bluetooth.characteristic.particulate_matter_pm1_concentration"},
	"2BD6": {"Particulate Matter - PM2.5 Concentration", "org.bluetooth.characteristic.particulate_matter_pm2_5_concentration"},
	"2BD7": {"Particulate Matter - PM10 Concentration", "org.bluetooth.characteristic.particulate_matter_pm10_concentration"},
}

var descriptors = map[string]entry{
	"2900": {"Characteristic Extended Properties", "org.bluetooth.descriptor.gatt.characteristic_extended_properties"},
	"2901": {"Characteristic User Description", "org.bluetooth.descriptor.gatt.characteristic_user_description"},
	"2902": {"Client Characteristic Configuration", "org.bluetooth.descriptor.gatt.client_characteristic_configuration"},
	"2903": {"Server Characteristic Configuration", "org.bluetooth.descriptor.gatt.server_characteristic_configuration"},
	"2904": {"Characteristic Presentation Format", "org.bluetooth.descriptor.gatt.characteristic_presentation_format"},
	"290B": {"Environmental Sensing Configuration", "org.bluetooth.descriptor.es_configuration"},
	"290C": {"Environmental Sensing Measurement", "org.bluetooth.descriptor.es_measurement"},
	"290D": {"Environmental Sensing Trigger Setting", "org.bluetooth.descriptor.es_trigger_setting"},
}
