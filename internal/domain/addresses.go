package domain

// Contract identifiers of the TheBadge suite
const (
	ContractTheBadge                        = "TheBadge"
	ContractTheBadgeStore                   = "TheBadgeStore"
	ContractTheBadgeUsersStore              = "TheBadgeUsersStore"
	ContractTheBadgeUsers                   = "TheBadgeUsers"
	ContractTheBadgeModels                  = "TheBadgeModels"
	ContractKlerosBadgeModelController      = "KlerosBadgeModelController"
	ContractKlerosBadgeModelControllerStore = "KlerosBadgeModelControllerStore"
	ContractTpBadgeModelController          = "TpBadgeModelController"
	ContractTpBadgeModelControllerStore     = "TpBadgeModelControllerStore"
	ContractLightGTCRFactory                = "LightGTCRFactory"
	ContractCustomLightGTCRFactory          = "CustomLightGTCRFactory"
	ContractCustomLightGTCR                 = "CustomLightGTCR"
	ContractKlerosArbitror                  = "KlerosArbitror"
)

// KnownContracts lists the contract identifiers the built-in table tracks
var KnownContracts = []string{
	ContractTheBadge,
	ContractTheBadgeStore,
	ContractTheBadgeUsersStore,
	ContractTheBadgeUsers,
	ContractTheBadgeModels,
	ContractKlerosBadgeModelController,
	ContractKlerosBadgeModelControllerStore,
	ContractTpBadgeModelController,
	ContractTpBadgeModelControllerStore,
	ContractLightGTCRFactory,
	ContractCustomLightGTCRFactory,
	ContractCustomLightGTCR,
	ContractKlerosArbitror,
}

// AddressTable maps a network to contract name to address. An empty address means not deployed.
type AddressTable map[NetworkID]map[string]string

// Lookup returns the address recorded for contract on network
func (t AddressTable) Lookup(network NetworkID, contract string) (string, bool) {
	addr, ok := t[network][contract]
	return addr, ok && addr != ""
}

// Clone returns a deep copy of the table
func (t AddressTable) Clone() AddressTable {
	c := make(AddressTable, len(t))
	for id, entries := range t {
		c[id] = make(map[string]string, len(entries))
		for name, addr := range entries {
			c[id][name] = addr
		}
	}
	return c
}

// BuiltinAddresses returns the address table shipped with the binary. Every supported
// network has an entry, possibly empty.
func BuiltinAddresses() AddressTable {
	t := builtinAddresses.Clone()
	for id := range supportedNetworks {
		if _, ok := t[id]; !ok {
			t[id] = map[string]string{}
		}
	}
	return t
}

var builtinAddresses = AddressTable{
	Goerli: {
		ContractTheBadge:                        "0x4e14816A80D7c4FeEeb56C225e821c6374F4AB56",
		ContractTheBadgeStore:                   "0x158A8379071d280e811dC7b670c22a0b46dC582D",
		ContractTheBadgeUsersStore:              "0x905a49Ead7540FF8a563EB02F66B5c13c5e8eC71",
		ContractTheBadgeUsers:                   "0xbAaA5510144470eBE7260B743CA5516596A0250E",
		ContractTheBadgeModels:                  "0xDb5c2bcfD8cc522B8DD634DC507E135383049566",
		ContractKlerosBadgeModelController:      "0x2C68a077fc4b4e694958A978b409e4127D68f811",
		ContractKlerosBadgeModelControllerStore: "0x5F7BF602cF2cc5f631C639293CA0bC733eCD31A6",
		ContractTpBadgeModelController:          "0xB085F625E976c913b82Bf291d32Dc0E55566D3Af",
		ContractTpBadgeModelControllerStore:     "0x9521e582c3d52cF6a8Dd5adc350f66cB0814c281",
		ContractLightGTCRFactory:                "0x55A3d9Bd99F286F1817CAFAAB124ddDDFCb0F314",
		ContractKlerosArbitror:                  "0x1128ed55ab2d796fa92d2f8e1f336d745354a77a",
	},
	Sepolia: {
		ContractTheBadge:                        "0x4e14816A80D7c4FeEeb56C225e821c6374F4AB56",
		ContractTheBadgeStore:                   "0x158A8379071d280e811dC7b670c22a0b46dC582D",
		ContractTheBadgeUsersStore:              "0x905a49Ead7540FF8a563EB02F66B5c13c5e8eC71",
		ContractTheBadgeUsers:                   "0xbAaA5510144470eBE7260B743CA5516596A0250E",
		ContractTheBadgeModels:                  "0xDb5c2bcfD8cc522B8DD634DC507E135383049566",
		ContractKlerosBadgeModelController:      "0x2C68a077fc4b4e694958A978b409e4127D68f811",
		ContractKlerosBadgeModelControllerStore: "0x5F7BF602cF2cc5f631C639293CA0bC733eCD31A6",
		ContractTpBadgeModelController:          "0xB085F625E976c913b82Bf291d32Dc0E55566D3Af",
		ContractTpBadgeModelControllerStore:     "0x9521e582c3d52cF6a8Dd5adc350f66cB0814c281",
		ContractLightGTCRFactory:                "0x3FB8314C628E9afE7677946D3E23443Ce748Ac17",
		ContractCustomLightGTCRFactory:          "0x5B7A6B423246df397daA10f416E42ebff63d0Bc4",
		ContractCustomLightGTCR:                 "0xE7f5dE2dafc9B5Fc954C1b800D82E7868EdF2c07",
		ContractKlerosArbitror:                  "0x90992fb4e15ce0c59aeffb376460fda4ee19c879",
	},
	Gnosis: {
		ContractTheBadge:                        "0x5f90580636AE29a9E4CD2AFFCE6d73501cD594F2",
		ContractTheBadgeStore:                   "0xaDe4Dcc3613dc0b77593adb3D694F2F6f71E4125",
		ContractTheBadgeUsersStore:              "0x9316b09049c432E9F69e7d2f613036d936332Ad1",
		ContractTheBadgeUsers:                   "0x8C0DcD187127b88665fE8FD4F39Cb18758946C0f",
		ContractTheBadgeModels:                  "0x277D01AACE02C9e6Fa617Ea61Ece24BEDa46453c",
		ContractKlerosBadgeModelController:      "0x51e6775fFcDc4E7bd819663E9CabD2bE723C4fBf",
		ContractKlerosBadgeModelControllerStore: "0x86a3C11F2531cb064A4862d371DCB53793E26437",
		ContractTpBadgeModelController:          "0xDd3472bD0B1382e90238D19b5916C71a657eF223",
		ContractTpBadgeModelControllerStore:     "0x59168cE4F00531D8d86aB1eeBBB670DB537dA8AB",
		ContractLightGTCRFactory:                "0x08e58Bc26CFB0d346bABD253A1799866F269805a",
		ContractKlerosArbitror:                  "0x9C1dA9A04925bDfDedf0f6421bC7EEa8305F9002",
	},
	Polygon: {
		ContractTheBadge:                        "0xE6c5c3174439DA7D2D60456Ca7eB97E7Dcd551e6",
		ContractTheBadgeStore:                   "0x870cDfe4c9b4FFe0687b7f871f6e96793440B214",
		ContractTheBadgeUsersStore:              "0x7808B0320a21851139207EdAaAAfb1dc4039ceC2",
		ContractTheBadgeUsers:                   "0x8Edfc741aED6B2C43485983d4C7b6B095b00500c",
		ContractTheBadgeModels:                  "0x3C838b8571c53D29108F69b98145f8FcC446Fa5a",
		ContractKlerosBadgeModelController:      "0x5B7A6B423246df397daA10f416E42ebff63d0Bc4",
		ContractKlerosBadgeModelControllerStore: "0xE7f5dE2dafc9B5Fc954C1b800D82E7868EdF2c07",
		ContractTpBadgeModelController:          "0x4dC5E2FaC3D0254fEF7f40163261b9307c1C9df3",
		ContractTpBadgeModelControllerStore:     "0x46d5469385C4Af4a3dd858AA839fc49d1f6c485f",
		ContractLightGTCRFactory:                "0xf6740379930fef3a812e00c4a725c8bb10052a1d",
		ContractKlerosArbitror:                  "0x0f7aa4776538b83A7Afd4802880512979f7E8F93",
	},
	Mumbai: {
		ContractTheBadge:                        "0xBc8B15322279D7DEDfA6f38EC22075491aEDDB0f",
		ContractTheBadgeStore:                   "0xfA31e6E50d2Aa260434A056e7CaA3FD582B1FfE8",
		ContractTheBadgeUsersStore:              "0x63e00a9aE661CC88620B5F71FE03DaDa958B5096",
		ContractTheBadgeUsers:                   "0xAdCd2Cd1249211EeD1D4d72b1E8B53F3A792e5da",
		ContractTheBadgeModels:                  "0x3540D8484C5ab270b53e16EDD71791d37A49BBf8",
		ContractKlerosBadgeModelController:      "0xfD4403b0A7e39232bADFC188298F4a08AB20A6D9",
		ContractKlerosBadgeModelControllerStore: "0x942B5f77d8b174B35a9AC2D4b6a609E7ffF3Af56",
		ContractTpBadgeModelController:          "0x323370530CC8481Bb1599d4C9d565053c8BADAb1",
		ContractTpBadgeModelControllerStore:     "0x76c422969185675Ec46a80B765621B63451cF9F1",
		ContractLightGTCRFactory:                "0xf6740379930fef3a812e00c4a725c8bb10052a1d",
		ContractKlerosArbitror:                  "0x0f7aa4776538b83a7afd4802880512979f7e8f93",
	},
	Avax: {
		ContractCustomLightGTCRFactory: "0x905a49Ead7540FF8a563EB02F66B5c13c5e8eC71",
		ContractCustomLightGTCR:        "0x158A8379071d280e811dC7b670c22a0b46dC582D",
	},
}
