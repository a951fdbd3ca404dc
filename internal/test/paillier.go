package test

import (
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/mpcwallet/hdtss/pkg/paillier"
)

// safePrimes are 1024 bit safe Blum primes, consecutive pairs forming a Paillier modulus of 2048 bits.
// Generating them takes seconds per prime, so tests use these instead.
var safePrimes = [...]string{
	"DB43C02D803200B74C19FB17116811FF68EBD7C02AB317DF435472F91C5BC03F4DE592D408D8AE3353F1DEBA30E7A2199C3228CF0D69B244591A22AE69B042C0CC9987EABCBB783A30D6C62B0CF63196FA0A454C2EF76AC290E5C4CB2B2A4E7E0B9C52E2A026DADCEC3978A12E2150AF31F80BB39305C067CE113E21054C58DF",
	"D8DE0F7F027CA0C5CEE2B73EF043C0AF2CD70696E3FBD0ADF3F5E3E0469DFD8D4F7314A90AE3AFA6A0E09CEA72F5D3B23A93FDCFC0A393F66412B34EFF563F06E477E595AEE159F76B105688FAB1B6998FAF068D52F50EF77AEC771B482FBCBD3D98FB20206EC704823BCE837F789ACDAAF41951ADE0EB0C48C7C2F9737FD13F",
	"C2ADF62E9E93150EC8062475534E0EC76A4F377B4813E228325E9367D17917A1BED2DDF5662751BC1FA5D7C299946CDA656AA1A13B49FBB6F0D792FCFE7B94557D3D97BDE684F929A0435BFCDB3F63061129F558BC808C630D97028339DBCF3EA2B321D53C75EF1162D240C06E3B68A835AFBD79AB37A95B6C585CD6C868FF83",
	"E9B803D929BE45078ABD174F35DC5E9C93A7344AEFB5B3C6F2B879888552299465005DD376611AA9116F3E6AC51F7AA4DA3015DC566EADAE29144E4906B78FDAD8BFEF92557745C0C1C8626C6603BB85C0794957E4C24173351F069342A05EC84536E09AF3FEFBB1B494577A28E8FFF426B8A15C88E75083B24F2C289C4B2E03",
	"FD31DF4476190B0E48FFA71AD6AB7D19B6A213077611CDB7403E5AE4DD36906633861809A416C267625A411DB7BDB5B3C2C67963BF9DEF490E7AB67E7D2077EBD53F24555A0501DC12A23BAF299951CC6CEC6B32AD0B0937807A66BA549E5CF839863A074A2E21AFCC545D243B16FDCA891A768BFE70A921339F1B0771BDB35B",
	"EBA007C65D8D9A3759EC5708B37077269F715F5FD0CF2FCDA97CE90242F7B941E50482FF0991CDEE6FCD2E5E769BC517919A824EEE5AAF92776623A53BC16E1CDAA7A197D1D48BF1FD630587EABB8BC8AC267164D79E1EED921AB826A55A13EE58D68394D0A4349B499DF3DCABE840CDD873D61047BA632E0984B2573BA28E0B",
	"F860DC85982E18D48C9B1C0CC3F53E312052BB8D6ED3E1281A8ACEF1B50A30DE0F492CAFDF91B88D1DC83B2B69D11E69619617F131F8B0C25BFCE003D130AB4C9EFF00E53EF0AD966D9ABD5F34357085089ECB03CD81C5797A82E304EF92FC87526AAD3F21B592FB71FECD6555807F75E23D2806193D7885E176BE30590B0E9F",
	"D5700F50290683C79F4196F01AF568A890DCAC0F5EC87D73830C3F50CB0199473A8686A95E0930277695E13E9FCE5184E7DC3BA8A771DBF3BC29D2F4B5A5AC25420D1F8B263408A7C54550502A793E089922B0B69457B14C22517B7F0FD797B829B8503AD9BCB9571DDBE7522A4DF0200B64B610F932FF00EB290815335B4293",
	"C46841AA866040DEE5BBF922F48619CDA798236770055DCA6D7FD90D3219A16F6C1C2A084D3CC2A34DE36AFF979AC52A67F2BA922FF6EAE3DF55A2651BFCF63E342853A83B7A4B099C61E58C5AC5BB75A883CA92B0EE2A99EF22313AB68E376F8459B54DBB03F567B740D85359BE54535FDD0D7C193A711F6808F124279D85FF",
	"F60581D4B3D991485EA9EB73D80E1606CA040B4B9CDD4639CDCDE7056D94AF7EC79387DE1F109CF5CFFA81C8F90098983A6D3F77AB16FE39957AC30EAED382FB2D239A8DEC9DEB21DE57E28CA45E673C44439E65689426B9C756A3475D001D67D9B70F32EFC2BB0AD8DB0F34CCE8CF63531AA9CFF7D1D07F1261DDAB51356BFB",
}

// PaillierKeyCount is the number of distinct fixture keys returned by PaillierSecretKey.
const PaillierKeyCount = len(safePrimes) / 2

// PaillierSecretKey returns the i-th precomputed Paillier key, with 0 ≤ i < PaillierKeyCount.
func PaillierSecretKey(i int) *paillier.SecretKey {
	if i < 0 || i >= PaillierKeyCount {
		panic(fmt.Sprintf("test: no Paillier fixture %d", i))
	}
	p, err := new(saferith.Nat).SetHex(safePrimes[2*i])
	if err != nil {
		panic(err)
	}
	q, err := new(saferith.Nat).SetHex(safePrimes[2*i+1])
	if err != nil {
		panic(err)
	}
	return paillier.NewSecretKeyFromPrimes(p, q)
}
